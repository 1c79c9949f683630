// Package mock provides in-memory implementations of the database interfaces
// for testing.
package mock

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
)

// StudentStore is an in-memory implementation of database.StudentWriter.
type StudentStore struct {
	mu       sync.RWMutex
	students map[int64]database.Student
	vectors  map[int64]encoding.FaceEncoding
	nextID   int64

	// Error injection
	ListError   error
	GetError    error
	CreateError error
	DeleteError error
}

// NewStudentStore creates a new empty mock roster.
func NewStudentStore() *StudentStore {
	return &StudentStore{
		students: make(map[int64]database.Student),
		vectors:  make(map[int64]encoding.FaceEncoding),
		nextID:   1,
	}
}

// Add puts a student directly into the mock store, assigning an ID when the
// student has none.
func (m *StudentStore) Add(s database.Student) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	} else if s.ID >= m.nextID {
		m.nextID = s.ID + 1
	}
	m.students[s.ID] = s
	return s.ID
}

// List returns the roster ordered by name.
func (m *StudentStore) List(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get retrieves a student by ID, returns nil if not found.
func (m *StudentStore) Get(ctx context.Context, id int64) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// Count returns the number of students.
func (m *StudentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// Create inserts a new student.
func (m *StudentStore) Create(ctx context.Context, s *database.Student, vec encoding.FaceEncoding) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	stored := *s
	stored.ID = id
	m.students[id] = stored
	m.vectors[id] = vec
	return id, nil
}

// Delete removes a student.
func (m *StudentStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	delete(m.vectors, id)
	return nil
}

// FindNearest returns up to limit students ordered by Euclidean distance of
// their stored vector to vec.
func (m *StudentStore) FindNearest(ctx context.Context, vec encoding.FaceEncoding, limit int) ([]database.Student, []float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		student  database.Student
		distance float64
	}
	var all []scored
	for id, v := range m.vectors {
		all = append(all, scored{m.students[id], encoding.EuclideanDistance(v, vec)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].distance < all[j].distance })
	if len(all) > limit {
		all = all[:limit]
	}

	students := make([]database.Student, len(all))
	distances := make([]float64, len(all))
	for i, s := range all {
		students[i] = s.student
		distances[i] = s.distance
	}
	return students, distances, nil
}

// recordKey identifies one (student, date) attendance row.
type recordKey struct {
	StudentID int64
	Date      string
}

// AttendanceStoreMock is an in-memory implementation of
// database.AttendanceStore backed by the mock roster, so Day can produce the
// LEFT JOIN view.
type AttendanceStoreMock struct {
	mu      sync.RWMutex
	records map[recordKey]database.AttendanceRecord
	roster  *StudentStore
	policy  string

	// Error injection. UpsertErrorFor fails only the given student IDs, which
	// exercises partial-failure isolation.
	UpsertError    error
	UpsertErrorFor map[int64]error
	DayError       error
	RangeError     error
	ForStudentErr  error

	// UpsertCalls counts writes for idempotence assertions.
	UpsertCalls int
}

// NewAttendanceStore creates a mock attendance store joined to the roster.
func NewAttendanceStore(roster *StudentStore, policy string) *AttendanceStoreMock {
	return &AttendanceStoreMock{
		records: make(map[recordKey]database.AttendanceRecord),
		roster:  roster,
		policy:  policy,
	}
}

// Records returns a copy of all stored records.
func (m *AttendanceStoreMock) Records() []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.AttendanceRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out
}

// Upsert writes one record keyed on (student, date).
func (m *AttendanceStoreMock) Upsert(ctx context.Context, rec *database.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++

	if m.UpsertError != nil {
		return m.UpsertError
	}
	if err, ok := m.UpsertErrorFor[rec.StudentID]; ok {
		return err
	}

	key := recordKey{rec.StudentID, rec.Date}
	if _, exists := m.records[key]; exists && m.policy == database.PolicyKeepFirst {
		return nil
	}
	m.records[key] = *rec
	return nil
}

// Day returns the roster joined with the date's records.
func (m *AttendanceStoreMock) Day(ctx context.Context, date string) ([]database.DayRow, error) {
	if m.DayError != nil {
		return nil, m.DayError
	}

	students, err := m.roster.List(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.DayRow, 0, len(students))
	for _, s := range students {
		row := database.DayRow{
			StudentID: s.ID,
			Name:      s.Name,
			Email:     s.Email,
			Status:    database.StatusAbsent,
		}
		if rec, ok := m.records[recordKey{s.ID, date}]; ok {
			row.Status = rec.Status
			row.Date = rec.Date
			updated := rec.UpdatedAt
			row.UpdatedAt = &updated
		}
		out = append(out, row)
	}
	return out, nil
}

// Range returns records with date in [start, end], newest date first.
func (m *AttendanceStoreMock) Range(ctx context.Context, start, end string) ([]database.RangeRow, error) {
	if m.RangeError != nil {
		return nil, m.RangeError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.RangeRow
	for key, rec := range m.records {
		if rec.Date < start || rec.Date > end {
			continue
		}
		student, _ := m.roster.Get(ctx, key.StudentID)
		row := database.RangeRow{
			StudentID: rec.StudentID,
			Date:      rec.Date,
			Status:    rec.Status,
			UpdatedAt: rec.UpdatedAt,
		}
		if student != nil {
			row.Name = student.Name
			row.Email = student.Email
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ForStudent returns one student's records, newest first.
func (m *AttendanceStoreMock) ForStudent(ctx context.Context, studentID int64, start, end string) ([]database.AttendanceRecord, error) {
	if m.ForStudentErr != nil {
		return nil, m.ForStudentErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.AttendanceRecord
	for key, rec := range m.records {
		if key.StudentID != studentID {
			continue
		}
		if start != "" && (rec.Date < start || rec.Date > end) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}
