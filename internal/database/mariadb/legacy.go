// Package mariadb reads student rosters out of the legacy MySQL/MariaDB
// deployment so they can be imported into the current store.
package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"smart-attendance/internal/database"
)

// LegacyRoster wraps a connection to the old attendance database.
type LegacyRoster struct {
	db *sql.DB
}

// Open connects to the legacy database and verifies the connection.
func Open(dsn string) (*LegacyRoster, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open legacy database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not ping legacy database: %w", err)
	}

	return &LegacyRoster{db: db}, nil
}

// Students reads every enrolled student. Face encodings come back verbatim,
// in whatever serialized shape the old application wrote them.
func (l *LegacyRoster) Students(ctx context.Context) ([]database.Student, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(email, ''), COALESCE(face_encoding, '') FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("could not query legacy students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.FaceEncoding); err != nil {
			return nil, fmt.Errorf("could not scan legacy student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate legacy students: %w", err)
	}

	return students, nil
}

// Close releases the database connection.
func (l *LegacyRoster) Close() error {
	return l.db.Close()
}
