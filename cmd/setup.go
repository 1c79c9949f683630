package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart-attendance/internal/attendance"
	"smart-attendance/internal/config"
	"smart-attendance/internal/database/postgres"
	"smart-attendance/internal/encoder"
)

// openStore connects to PostgreSQL, applies pending migrations and returns
// the pool together with the repositories built on it.
func openStore(ctx context.Context, cfg *config.Config) (*postgres.Pool, *postgres.StudentRepository, *postgres.AttendanceRepository, error) {
	if cfg.Database.URL == "" {
		return nil, nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	students := postgres.NewStudentRepository(pool)
	records := postgres.NewAttendanceRepository(pool, cfg.Matcher.MarkPolicy)
	return pool, students, records, nil
}

// newEncoderClient builds the face encoding service client from config.
func newEncoderClient(cfg *config.Config) *encoder.Client {
	return encoder.New(cfg.Encoder.URL, time.Duration(cfg.Encoder.TimeoutSeconds)*time.Second)
}

// matcherOptions maps config onto the attendance pipeline options.
func matcherOptions(cfg *config.Config) attendance.Options {
	return attendance.Options{
		Threshold:     cfg.Matcher.Threshold,
		Dim:           cfg.Encoder.Dim,
		UnitNormalize: cfg.Matcher.UnitNormalize,
	}
}
