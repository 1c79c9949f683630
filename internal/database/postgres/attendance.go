package postgres

import (
	"context"
	"fmt"

	"smart-attendance/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage. The
// unique constraint on (student_id, date) makes every write an atomic upsert;
// no additional locking is applied.
type AttendanceRepository struct {
	pool   *Pool
	policy string
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
// policy selects the re-mark behavior; anything other than
// database.PolicyKeepFirst behaves as PolicyOverwrite.
func NewAttendanceRepository(pool *Pool, policy string) *AttendanceRepository {
	return &AttendanceRepository{pool: pool, policy: policy}
}

// Upsert writes one attendance record keyed on (student_id, date).
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *database.AttendanceRecord) error {
	query := `
		INSERT INTO attendance (student_id, date, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, date)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`
	if r.policy == database.PolicyKeepFirst {
		query = `
			INSERT INTO attendance (student_id, date, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (student_id, date) DO NOTHING
		`
	}

	if _, err := r.pool.Exec(ctx, query, rec.StudentID, rec.Date, rec.Status); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// Day returns the full roster with each student's status for the date,
// defaulting to absent where no record exists.
func (r *AttendanceRepository) Day(ctx context.Context, date string) ([]database.DayRow, error) {
	query := `
		SELECT s.id, s.name, COALESCE(s.email, ''),
		       COALESCE(a.status, 'absent'),
		       COALESCE(to_char(a.date, 'YYYY-MM-DD'), ''),
		       a.updated_at
		FROM students s
		LEFT JOIN attendance a ON s.id = a.student_id AND a.date = $1
		ORDER BY s.name
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query day attendance: %w", err)
	}
	defer rows.Close()

	var out []database.DayRow
	for rows.Next() {
		var row database.DayRow
		if err := rows.Scan(&row.StudentID, &row.Name, &row.Email, &row.Status, &row.Date, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan day attendance: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day attendance: %w", err)
	}
	return out, nil
}

// Range returns all records with date in [start, end], newest date first.
func (r *AttendanceRepository) Range(ctx context.Context, start, end string) ([]database.RangeRow, error) {
	query := `
		SELECT s.id, s.name, COALESCE(s.email, ''),
		       to_char(a.date, 'YYYY-MM-DD'), a.status, a.updated_at
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		WHERE a.date BETWEEN $1 AND $2
		ORDER BY a.date DESC, s.name
	`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query attendance range: %w", err)
	}
	defer rows.Close()

	var out []database.RangeRow
	for rows.Next() {
		var row database.RangeRow
		if err := rows.Scan(&row.StudentID, &row.Name, &row.Email, &row.Date, &row.Status, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance range: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance range: %w", err)
	}
	return out, nil
}

// ForStudent returns one student's records, newest first, optionally bounded
// by [start, end].
func (r *AttendanceRepository) ForStudent(ctx context.Context, studentID int64, start, end string) ([]database.AttendanceRecord, error) {
	query := `
		SELECT student_id, to_char(date, 'YYYY-MM-DD'), status, updated_at
		FROM attendance
		WHERE student_id = $1
	`
	args := []any{studentID}
	if start != "" && end != "" {
		query += " AND date BETWEEN $2 AND $3"
		args = append(args, start, end)
	}
	query += " ORDER BY date DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query student attendance: %w", err)
	}
	defer rows.Close()

	var out []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(&rec.StudentID, &rec.Date, &rec.Status, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan student attendance: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student attendance: %w", err)
	}
	return out, nil
}
