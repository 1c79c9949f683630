// Package attendance is the face-matching and attendance-reconciliation
// engine: it turns a submitted photo into a durable per-day attendance
// record for the whole roster, plus derived statistics.
package attendance

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
	"smart-attendance/internal/imaging"
	"smart-attendance/internal/matcher"
)

// EncodingExtractor is the external face encoding service. It receives image
// bytes and returns a raw encoding payload in any of the shapes
// internal/encoding accepts, or nil when no face was found.
type EncodingExtractor interface {
	ExtractEncodings(ctx context.Context, image []byte) (json.RawMessage, error)
}

// Options tunes the matching pipeline.
type Options struct {
	// Threshold is the maximum Euclidean distance for a match. Strictly
	// compared: a candidate at exactly Threshold does not match.
	Threshold float64
	// Dim is the encoding dimension.
	Dim int
	// UnitNormalize divides every encoding by its norm before matching.
	UnitNormalize bool
}

// Service wires the matching pipeline to its collaborators. All storage
// access goes through the injected interfaces; the service holds no global
// state and is safe for concurrent use.
type Service struct {
	students database.StudentReader
	store    database.AttendanceStore
	encoder  EncodingExtractor
	opts     Options
	now      func() time.Time
}

// NewService creates the attendance service.
func NewService(students database.StudentReader, store database.AttendanceStore, enc EncodingExtractor, opts Options) *Service {
	if opts.Threshold == 0 {
		opts.Threshold = 0.6
	}
	if opts.Dim == 0 {
		opts.Dim = encoding.DefaultDim
	}
	return &Service{
		students: students,
		store:    store,
		encoder:  enc,
		opts:     opts,
		now:      time.Now,
	}
}

// MarkAttendance runs one marking pass: extract encodings from the photo,
// match them against the roster, and persist a present/absent outcome for
// every enrolled student under today's date.
func (s *Service) MarkAttendance(ctx context.Context, image []byte) (*MarkResult, error) {
	if len(image) == 0 {
		return nil, validationf("no image provided")
	}

	prepared, err := imaging.Prepare(image, imaging.MaxDimension)
	if err != nil {
		return nil, validationf("invalid image: %v", err)
	}

	raw, err := s.encoder.ExtractEncodings(ctx, prepared)
	if err != nil {
		return nil, &UpstreamError{Message: "face encoding extraction failed", Err: err}
	}
	if raw == nil {
		return nil, validationf("no faces detected in the image")
	}

	detected, err := encoding.ExtractAll(raw, s.opts.Dim)
	if err != nil {
		return nil, validationf("no valid face encodings found: %v", err)
	}

	roster, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, notFoundf("no students registered")
	}

	faces := make([]matcher.Face, 0, len(detected))
	for i, enc := range detected {
		if s.opts.UnitNormalize {
			enc = encoding.UnitNormalize(enc)
		}
		faces = append(faces, matcher.Face{Index: i, Encoding: enc})
	}

	candidates := s.candidates(roster)
	matches := matcher.Assign(faces, candidates, s.opts.Threshold)

	date := s.today()
	outcomes := reconcile(ctx, s.store, roster, matches, date)

	return &MarkResult{
		RunID:      uuid.NewString(),
		Date:       date,
		Attendance: outcomes,
		Stats:      computeRunStats(outcomes, len(detected), len(matches)),
	}, nil
}

// candidates parses every roster member's reference encoding. Students whose
// stored encoding does not normalize are logged and skipped as candidates for
// the whole run; the reconciler still marks them absent.
func (s *Service) candidates(roster []database.Student) []matcher.Candidate {
	candidates := make([]matcher.Candidate, 0, len(roster))
	for _, student := range roster {
		enc, err := encoding.ParseStored(student.FaceEncoding, s.opts.Dim)
		if err != nil {
			log.Printf("skipping student %d (%s) as match candidate: %v", student.ID, student.Name, err)
			continue
		}
		if s.opts.UnitNormalize {
			enc = encoding.UnitNormalize(enc)
		}
		candidates = append(candidates, matcher.Candidate{ID: student.ID, Encoding: enc})
	}
	return candidates
}

// TodaysAttendance returns the full roster with today's status, defaulting to
// absent for students without a record.
func (s *Service) TodaysAttendance(ctx context.Context) (*DayResult, error) {
	date := s.today()
	rows, err := s.store.Day(ctx, date)
	if err != nil {
		return nil, err
	}

	stats := DayStats{Total: len(rows), Date: date}
	for _, row := range rows {
		if row.Status == database.StatusPresent {
			stats.Present++
		} else if row.Status == database.StatusAbsent {
			stats.Absent++
		}
	}

	return &DayResult{Date: date, Rows: rows, Stats: stats}, nil
}

// AttendanceRange returns all records with date in [start, end] grouped by
// date, newest first. Both dates are required in strict YYYY-MM-DD form; the
// store is not queried when validation fails.
func (s *Service) AttendanceRange(ctx context.Context, start, end string) (*RangeResult, error) {
	if start == "" || end == "" {
		return nil, validationf("start_date and end_date are required")
	}
	if !validDate(start) || !validDate(end) {
		return nil, validationf("date format should be YYYY-MM-DD")
	}

	rows, err := s.store.Range(ctx, start, end)
	if err != nil {
		return nil, err
	}

	groups, stats := groupByDate(rows)
	stats.StartDate = start
	stats.EndDate = end
	return &RangeResult{Groups: groups, Stats: stats}, nil
}

// StudentAttendance returns one student's history and aggregate statistics,
// optionally bounded by [start, end].
func (s *Service) StudentAttendance(ctx context.Context, studentID int64, start, end string) (*StudentResult, error) {
	if (start == "") != (end == "") {
		return nil, validationf("start_date and end_date must be provided together")
	}
	if start != "" && (!validDate(start) || !validDate(end)) {
		return nil, validationf("date format should be YYYY-MM-DD")
	}

	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, notFoundf("student not found")
	}

	history, err := s.store.ForStudent(ctx, studentID, start, end)
	if err != nil {
		return nil, err
	}

	return &StudentResult{
		Student: *student,
		History: history,
		Stats:   computeStudentStats(history),
	}, nil
}

func (s *Service) today() string {
	return s.now().Format("2006-01-02")
}

// validDate accepts only real calendar dates in YYYY-MM-DD form.
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
