package attendance

import (
	"smart-attendance/internal/database"
)

// Outcome is one student's result from a marking run. Every roster member
// gets exactly one outcome regardless of whether any face matched them.
type Outcome struct {
	StudentID  int64    `json:"student_id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence"`
	MatchScore *float64 `json:"match_score,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// RunStats summarizes one marking run.
type RunStats struct {
	TotalStudents  int `json:"totalStudents"`
	Present        int `json:"present"`
	Absent         int `json:"absent"`
	Errors         int `json:"errors,omitempty"`
	FacesDetected  int `json:"facesDetected"`
	FacesMatched   int `json:"facesMatched"`
	UnmatchedFaces int `json:"unmatchedFaces"`
}

// MarkResult is the full response of one marking run.
type MarkResult struct {
	RunID      string    `json:"run_id"`
	Date       string    `json:"date"`
	Attendance []Outcome `json:"attendance"`
	Stats      RunStats  `json:"stats"`
}

// DayResult is the roster view for a single day.
type DayResult struct {
	Date  string             `json:"date"`
	Rows  []database.DayRow  `json:"data"`
	Stats DayStats           `json:"stats"`
}

// DayStats summarizes a single day.
type DayStats struct {
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Date    string `json:"date"`
}

// DateGroup is all records for one calendar date within a range query.
type DateGroup struct {
	Date     string              `json:"date"`
	Students []database.RangeRow `json:"students"`
}

// DateStats is the per-date summary within a range.
type DateStats struct {
	Date           string `json:"date"`
	Total          int    `json:"total"`
	Present        int    `json:"present"`
	Absent         int    `json:"absent"`
	AttendanceRate int    `json:"attendance_rate"`
}

// RangeStats aggregates a date range.
type RangeStats struct {
	StartDate             string      `json:"start_date"`
	EndDate               string      `json:"end_date"`
	TotalDays             int         `json:"total_days"`
	TotalRecords          int         `json:"total_records"`
	TotalPresent          int         `json:"total_present"`
	TotalAbsent           int         `json:"total_absent"`
	OverallAttendanceRate int         `json:"overall_attendance_rate"`
	DateWiseStats         []DateStats `json:"date_wise_stats"`
}

// RangeResult is the response of a date-range query.
type RangeResult struct {
	Groups []DateGroup `json:"data"`
	Stats  RangeStats  `json:"stats"`
}

// StudentStats summarizes one student's history.
type StudentStats struct {
	TotalRecords   int     `json:"total_records"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// StudentResult is the response of a per-student history query.
type StudentResult struct {
	Student database.Student            `json:"student"`
	History []database.AttendanceRecord `json:"attendance"`
	Stats   StudentStats                `json:"stats"`
}
