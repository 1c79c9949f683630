package attendance

import (
	"context"
	"log"

	"smart-attendance/internal/database"
	"smart-attendance/internal/matcher"
)

// reconcile turns a match list into one outcome per roster member and
// persists each outcome with an idempotent upsert keyed on (student, date).
// A write failure for one student is folded into that student's outcome as
// status "error" and never stops the rest of the roster; the write is not
// retried here - re-running the whole marking pass is naturally idempotent.
func reconcile(ctx context.Context, store database.AttendanceStore, roster []database.Student, matches []matcher.Match, date string) []Outcome {
	matchByStudent := make(map[int64]matcher.Match, len(matches))
	for _, m := range matches {
		matchByStudent[m.CandidateID] = m
	}

	outcomes := make([]Outcome, 0, len(roster))
	for _, student := range roster {
		match, present := matchByStudent[student.ID]

		status := database.StatusAbsent
		if present {
			status = database.StatusPresent
		}

		outcome := Outcome{
			StudentID: student.ID,
			Name:      student.Name,
			Status:    status,
		}
		if present {
			outcome.Confidence = confidence(match.Distance)
			score := match.Distance
			outcome.MatchScore = &score
		}

		rec := &database.AttendanceRecord{
			StudentID: student.ID,
			Date:      date,
			Status:    status,
		}
		if err := store.Upsert(ctx, rec); err != nil {
			log.Printf("attendance upsert failed for student %d: %v", student.ID, err)
			outcome.Status = database.StatusError
			outcome.Confidence = 0
			outcome.MatchScore = nil
			outcome.Error = err.Error()
		}

		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// confidence maps a match distance to a display value in [0, 1]: 1 at
// distance 0, falling linearly, floored at 0 from distance 1 on. Display
// only; no decision uses it.
func confidence(distance float64) float64 {
	if distance > 1 {
		return 0
	}
	return 1 - distance
}
