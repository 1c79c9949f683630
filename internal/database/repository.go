package database

import (
	"context"

	"smart-attendance/internal/encoding"
)

// StudentReader provides read-only access to the enrolled roster.
type StudentReader interface {
	// List returns the full roster ordered by name.
	List(ctx context.Context) ([]Student, error)
	// Get retrieves a student by ID, returns nil if not found.
	Get(ctx context.Context, id int64) (*Student, error)
	// Count returns the number of enrolled students.
	Count(ctx context.Context) (int, error)
}

// StudentWriter provides write access to the roster.
type StudentWriter interface {
	StudentReader

	// Create inserts a new student and returns the assigned ID. The raw
	// encoding string is stored verbatim; vec is the parsed canonical vector
	// used for nearest-neighbor queries.
	Create(ctx context.Context, s *Student, vec encoding.FaceEncoding) (int64, error)
	// Delete removes a student and their attendance history.
	Delete(ctx context.Context, id int64) error
	// FindNearest returns up to limit students ordered by Euclidean distance
	// of their reference vector to vec, with the distances.
	FindNearest(ctx context.Context, vec encoding.FaceEncoding, limit int) ([]Student, []float64, error)
}

// AttendanceStore persists per-student per-day outcomes. Implementations
// guarantee at most one record per (student, date) via an atomic upsert;
// concurrent runs for the same key race only on which write lands last.
type AttendanceStore interface {
	// Upsert writes one record. Under PolicyOverwrite a second write for the
	// same (student, date) replaces the first; under PolicyKeepFirst it is a
	// no-op.
	Upsert(ctx context.Context, rec *AttendanceRecord) error
	// Day returns the full roster with each student's status for the date,
	// defaulting to absent where no record exists.
	Day(ctx context.Context, date string) ([]DayRow, error)
	// Range returns all records with date in [start, end], newest date first.
	Range(ctx context.Context, start, end string) ([]RangeRow, error)
	// ForStudent returns one student's records, optionally bounded by
	// [start, end] (both empty means unbounded), newest first.
	ForStudent(ctx context.Context, studentID int64, start, end string) ([]AttendanceRecord, error)
}
