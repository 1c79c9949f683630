package database

import (
	"time"
)

// Attendance status values persisted per (student, date).
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusError   = "error"
)

// Re-mark policies for a day that already has a record.
const (
	// PolicyOverwrite makes the latest marking run win (upsert overwrites).
	PolicyOverwrite = "overwrite"
	// PolicyKeepFirst keeps the first outcome written for the day.
	PolicyKeepFirst = "keep-first"
)

// Student is one enrolled roster row. FaceEncoding holds the reference
// encoding exactly as it was received at enrollment; older rosters carry
// several serialized shapes, so consumers normalize it on every read.
type Student struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	FaceEncoding string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttendanceRecord is one durable per-student per-day outcome. The store
// enforces uniqueness on (StudentID, Date).
type AttendanceRecord struct {
	StudentID int64     `json:"student_id"`
	Date      string    `json:"date"` // calendar date, YYYY-MM-DD
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayRow is one roster row joined with the day's attendance record. Students
// without a record for the day surface with StatusAbsent and a nil UpdatedAt.
type DayRow struct {
	StudentID int64      `json:"student_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Status    string     `json:"status"`
	Date      string     `json:"date,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// RangeRow is one attendance record joined with its student, as returned by
// date-range queries.
type RangeRow struct {
	StudentID int64     `json:"student_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
