package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
)

// StudentRepository provides PostgreSQL-backed roster storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// List returns the full roster ordered by name.
func (r *StudentRepository) List(ctx context.Context) ([]database.Student, error) {
	query := `
		SELECT id, name, COALESCE(email, ''), face_encoding, created_at
		FROM students
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// Get retrieves a student by ID, returns nil if not found.
func (r *StudentRepository) Get(ctx context.Context, id int64) (*database.Student, error) {
	query := `
		SELECT id, name, COALESCE(email, ''), face_encoding, created_at
		FROM students
		WHERE id = $1
	`

	var s database.Student
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Email, &s.FaceEncoding, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	return &s, nil
}

// Count returns the number of enrolled students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Create inserts a new student and returns the assigned ID.
func (r *StudentRepository) Create(ctx context.Context, s *database.Student, vec encoding.FaceEncoding) (int64, error) {
	query := `
		INSERT INTO students (name, email, face_encoding, embedding)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING id
	`

	var embedding any
	if len(vec) > 0 {
		embedding = pgvector.NewVector([]float32(vec))
	}

	var id int64
	err := r.pool.QueryRow(ctx, query, s.Name, s.Email, s.FaceEncoding, embedding).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert student: %w", err)
	}
	return id, nil
}

// Delete removes a student; attendance rows go with it via ON DELETE CASCADE.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindNearest returns up to limit students ordered by the Euclidean distance
// of their reference vector to vec. Students without a parsed vector are
// excluded.
func (r *StudentRepository) FindNearest(ctx context.Context, vec encoding.FaceEncoding, limit int) ([]database.Student, []float64, error) {
	query := `
		SELECT id, name, COALESCE(email, ''), face_encoding, created_at,
		       embedding <-> $1 AS distance
		FROM students
		WHERE embedding IS NOT NULL
		ORDER BY embedding <-> $1
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector([]float32(vec)), limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query nearest students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	var distances []float64
	for rows.Next() {
		var s database.Student
		var d float64
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.FaceEncoding, &s.CreatedAt, &d); err != nil {
			return nil, nil, fmt.Errorf("scan nearest student: %w", err)
		}
		students = append(students, s)
		distances = append(distances, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate nearest students: %w", err)
	}
	return students, distances, nil
}

func scanStudents(rows *sql.Rows) ([]database.Student, error) {
	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.FaceEncoding, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}
