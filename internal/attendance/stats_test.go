package attendance

import (
	"testing"

	"smart-attendance/internal/database"
)

func TestComputeRunStats(t *testing.T) {
	outcomes := []Outcome{
		{Status: database.StatusPresent},
		{Status: database.StatusPresent},
		{Status: database.StatusAbsent},
		{Status: database.StatusError},
	}

	stats := computeRunStats(outcomes, 3, 2)

	if stats.TotalStudents != 4 {
		t.Errorf("expected 4 students, got %d", stats.TotalStudents)
	}
	if stats.Present != 2 || stats.Absent != 1 || stats.Errors != 1 {
		t.Errorf("unexpected status counts: %+v", stats)
	}
	if stats.FacesDetected != 3 || stats.FacesMatched != 2 || stats.UnmatchedFaces != 1 {
		t.Errorf("unexpected face counts: %+v", stats)
	}
}

func TestGroupByDate_Empty(t *testing.T) {
	groups, stats := groupByDate(nil)

	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
	if stats.TotalDays != 0 || stats.TotalRecords != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.OverallAttendanceRate != 0 {
		t.Errorf("rate for empty range should be 0, got %d", stats.OverallAttendanceRate)
	}
}

func TestGroupByDate_PerDateStats(t *testing.T) {
	rows := []database.RangeRow{
		{StudentID: 1, Date: "2026-03-16", Status: database.StatusPresent},
		{StudentID: 2, Date: "2026-03-16", Status: database.StatusPresent},
		{StudentID: 1, Date: "2026-03-15", Status: database.StatusPresent},
		{StudentID: 2, Date: "2026-03-15", Status: database.StatusAbsent},
	}

	groups, stats := groupByDate(rows)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Date != "2026-03-16" {
		t.Errorf("expected newest date first, got %s", groups[0].Date)
	}

	if len(stats.DateWiseStats) != 2 {
		t.Fatalf("expected 2 per-date entries, got %d", len(stats.DateWiseStats))
	}
	newest := stats.DateWiseStats[0]
	if newest.Present != 2 || newest.Absent != 0 || newest.AttendanceRate != 100 {
		t.Errorf("unexpected stats for newest date: %+v", newest)
	}
	older := stats.DateWiseStats[1]
	if older.Present != 1 || older.Absent != 1 || older.AttendanceRate != 50 {
		t.Errorf("unexpected stats for older date: %+v", older)
	}

	if stats.TotalPresent != 3 || stats.TotalAbsent != 1 || stats.OverallAttendanceRate != 75 {
		t.Errorf("unexpected overall stats: %+v", stats)
	}
}

func TestComputeStudentStats_NoHistory(t *testing.T) {
	stats := computeStudentStats(nil)

	if stats.TotalRecords != 0 || stats.AttendanceRate != 0 {
		t.Errorf("unexpected stats for empty history: %+v", stats)
	}
}

func TestComputeStudentStats_Rounding(t *testing.T) {
	history := []database.AttendanceRecord{
		{Status: database.StatusPresent},
		{Status: database.StatusPresent},
		{Status: database.StatusAbsent},
	}

	stats := computeStudentStats(history)

	if stats.AttendanceRate != 66.67 {
		t.Errorf("expected rate 66.67, got %v", stats.AttendanceRate)
	}
}

func TestRatePercent(t *testing.T) {
	tests := []struct {
		present, total, want int
	}{
		{0, 0, 0},
		{1, 2, 50},
		{2, 3, 67},
		{1, 3, 33},
		{3, 3, 100},
	}

	for _, tt := range tests {
		if got := ratePercent(tt.present, tt.total); got != tt.want {
			t.Errorf("ratePercent(%d, %d) = %d, want %d", tt.present, tt.total, got, tt.want)
		}
	}
}
