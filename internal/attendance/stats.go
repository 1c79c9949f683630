package attendance

import (
	"math"
	"sort"

	"smart-attendance/internal/database"
)

// computeRunStats derives run-level statistics from the reconciled outcomes
// and the face counts of the run. Derived, never stored.
func computeRunStats(outcomes []Outcome, facesDetected, facesMatched int) RunStats {
	stats := RunStats{
		TotalStudents:  len(outcomes),
		FacesDetected:  facesDetected,
		FacesMatched:   facesMatched,
		UnmatchedFaces: facesDetected - facesMatched,
	}
	for _, o := range outcomes {
		switch o.Status {
		case database.StatusPresent:
			stats.Present++
		case database.StatusAbsent:
			stats.Absent++
		case database.StatusError:
			stats.Errors++
		}
	}
	return stats
}

// groupByDate groups range rows by calendar date and computes per-date and
// overall statistics. Dates are ordered newest first for display; the
// grouping itself is a plain set.
func groupByDate(rows []database.RangeRow) ([]DateGroup, RangeStats) {
	byDate := make(map[string][]database.RangeRow)
	for _, row := range rows {
		byDate[row.Date] = append(byDate[row.Date], row)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	var stats RangeStats
	groups := make([]DateGroup, 0, len(dates))
	for _, date := range dates {
		students := byDate[date]
		present := 0
		for _, s := range students {
			if s.Status == database.StatusPresent {
				present++
			}
		}
		total := len(students)
		groups = append(groups, DateGroup{Date: date, Students: students})
		stats.DateWiseStats = append(stats.DateWiseStats, DateStats{
			Date:           date,
			Total:          total,
			Present:        present,
			Absent:         total - present,
			AttendanceRate: ratePercent(present, total),
		})
		stats.TotalPresent += present
		stats.TotalRecords += total
	}

	stats.TotalDays = len(dates)
	stats.TotalAbsent = stats.TotalRecords - stats.TotalPresent
	stats.OverallAttendanceRate = ratePercent(stats.TotalPresent, stats.TotalRecords)
	return groups, stats
}

// computeStudentStats derives a student's aggregate history statistics.
// AttendanceRate is a percentage rounded to two decimal places, 0 when the
// student has no records.
func computeStudentStats(history []database.AttendanceRecord) StudentStats {
	stats := StudentStats{TotalRecords: len(history)}
	for _, rec := range history {
		if rec.Status == database.StatusPresent {
			stats.Present++
		}
	}
	stats.Absent = stats.TotalRecords - stats.Present
	if stats.TotalRecords > 0 {
		rate := float64(stats.Present) / float64(stats.TotalRecords) * 100
		stats.AttendanceRate = math.Round(rate*100) / 100
	}
	return stats
}

// ratePercent is present/total as a whole percentage, 0 when total is 0.
func ratePercent(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}
