//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"smart-attendance/internal/config"
	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

// testVector builds a 128-component vector with the value in the first
// component, plus its serialized form.
func testVector(t *testing.T, v float32) (encoding.FaceEncoding, string) {
	t.Helper()
	enc := make(encoding.FaceEncoding, encoding.DefaultDim)
	enc[0] = v
	stored, err := encoding.Marshal(enc)
	if err != nil {
		t.Fatalf("Failed to marshal vector: %v", err)
	}
	return enc, stored
}

func createStudent(t *testing.T, repo *StudentRepository, name string, v float32) int64 {
	t.Helper()
	vec, stored := testVector(t, v)
	id, err := repo.Create(context.Background(), &database.Student{
		Name:         name,
		FaceEncoding: stored,
	}, vec)
	if err != nil {
		t.Fatalf("Failed to create student %s: %v", name, err)
	}
	return id
}

func TestStudentRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewStudentRepository(pool)

	t.Run("CreateAndGet", func(t *testing.T) {
		_, stored := testVector(t, 0.1)
		id := createStudent(t, repo, "Alice", 0.1)

		got, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get student: %v", err)
		}
		if got == nil {
			t.Fatal("Expected student, got nil")
		}
		if got.Name != "Alice" {
			t.Errorf("Expected name 'Alice', got '%s'", got.Name)
		}
		if got.FaceEncoding != stored {
			t.Error("Stored encoding changed on the way through the database")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.Get(ctx, 99999)
		if err != nil {
			t.Fatalf("Get for a missing id should not error: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil, got %+v", got)
		}
	})

	t.Run("ListAndCount", func(t *testing.T) {
		createStudent(t, repo, "Bob", 0.9)

		students, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("Failed to list students: %v", err)
		}
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count students: %v", err)
		}
		if len(students) != count {
			t.Errorf("List returned %d students, Count says %d", len(students), count)
		}
	})

	t.Run("FindNearest", func(t *testing.T) {
		probe, _ := testVector(t, 0.1)

		students, distances, err := repo.FindNearest(ctx, probe, 1)
		if err != nil {
			t.Fatalf("Failed to find nearest: %v", err)
		}
		if len(students) != 1 {
			t.Fatalf("Expected 1 student, got %d", len(students))
		}
		if students[0].Name != "Alice" {
			t.Errorf("Expected Alice as nearest, got %s", students[0].Name)
		}
		if distances[0] > 0.001 {
			t.Errorf("Expected near-zero distance, got %v", distances[0])
		}
	})

	t.Run("Delete", func(t *testing.T) {
		id := createStudent(t, repo, "Temp", 2.0)

		if err := repo.Delete(ctx, id); err != nil {
			t.Fatalf("Failed to delete student: %v", err)
		}
		if err := repo.Delete(ctx, id); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("Expected sql.ErrNoRows for a second delete, got %v", err)
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	students := NewStudentRepository(pool)
	aliceID := createStudent(t, students, "Alice", 0.1)
	bobID := createStudent(t, students, "Bob", 0.9)

	t.Run("UpsertOverwrite", func(t *testing.T) {
		repo := NewAttendanceRepository(pool, database.PolicyOverwrite)

		rec := &database.AttendanceRecord{StudentID: aliceID, Date: "2026-03-16", Status: database.StatusAbsent}
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed first upsert: %v", err)
		}

		rec.Status = database.StatusPresent
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed second upsert: %v", err)
		}

		rows, err := repo.Day(ctx, "2026-03-16")
		if err != nil {
			t.Fatalf("Failed to read day: %v", err)
		}
		for _, row := range rows {
			if row.StudentID == aliceID && row.Status != database.StatusPresent {
				t.Errorf("Overwrite policy should keep the latest status, got %s", row.Status)
			}
		}
	})

	t.Run("UpsertKeepFirst", func(t *testing.T) {
		repo := NewAttendanceRepository(pool, database.PolicyKeepFirst)

		rec := &database.AttendanceRecord{StudentID: bobID, Date: "2026-03-16", Status: database.StatusPresent}
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed first upsert: %v", err)
		}

		rec.Status = database.StatusAbsent
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed second upsert: %v", err)
		}

		rows, err := repo.Day(ctx, "2026-03-16")
		if err != nil {
			t.Fatalf("Failed to read day: %v", err)
		}
		for _, row := range rows {
			if row.StudentID == bobID && row.Status != database.StatusPresent {
				t.Errorf("Keep-first policy should retain the first status, got %s", row.Status)
			}
		}
	})

	t.Run("DayDefaultsToAbsent", func(t *testing.T) {
		repo := NewAttendanceRepository(pool, database.PolicyOverwrite)

		rows, err := repo.Day(ctx, "2030-01-01")
		if err != nil {
			t.Fatalf("Failed to read day: %v", err)
		}
		if len(rows) < 2 {
			t.Fatalf("Expected the whole roster, got %d rows", len(rows))
		}
		for _, row := range rows {
			if row.Status != database.StatusAbsent {
				t.Errorf("Unrecorded day should be absent, got %s", row.Status)
			}
			if row.UpdatedAt != nil {
				t.Error("Unrecorded day should have no update time")
			}
		}
	})

	t.Run("Range", func(t *testing.T) {
		repo := NewAttendanceRepository(pool, database.PolicyOverwrite)

		seed := []database.AttendanceRecord{
			{StudentID: aliceID, Date: "2026-04-01", Status: database.StatusPresent},
			{StudentID: aliceID, Date: "2026-04-02", Status: database.StatusAbsent},
		}
		for i := range seed {
			if err := repo.Upsert(ctx, &seed[i]); err != nil {
				t.Fatalf("Failed to seed: %v", err)
			}
		}

		rows, err := repo.Range(ctx, "2026-04-01", "2026-04-30")
		if err != nil {
			t.Fatalf("Failed to read range: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		// Newest date first.
		if rows[0].Date != "2026-04-02" {
			t.Errorf("Expected newest date first, got %s", rows[0].Date)
		}
	})

	t.Run("ForStudent", func(t *testing.T) {
		repo := NewAttendanceRepository(pool, database.PolicyOverwrite)

		records, err := repo.ForStudent(ctx, aliceID, "2026-04-01", "2026-04-30")
		if err != nil {
			t.Fatalf("Failed to read history: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		for _, rec := range records {
			if rec.StudentID != aliceID {
				t.Errorf("Foreign record in history: %+v", rec)
			}
		}
	})

	t.Run("CascadeDelete", func(t *testing.T) {
		repo := NewAttendanceRepository(pool, database.PolicyOverwrite)
		id := createStudent(t, students, "Temp", 3.0)

		rec := &database.AttendanceRecord{StudentID: id, Date: "2026-05-01", Status: database.StatusPresent}
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}

		if err := students.Delete(ctx, id); err != nil {
			t.Fatalf("Failed to delete student: %v", err)
		}

		records, err := repo.ForStudent(ctx, id, "", "")
		if err != nil {
			t.Fatalf("Failed to read history: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("Attendance rows should cascade on student delete, got %d", len(records))
		}
	})
}
