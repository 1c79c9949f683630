package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"smart-attendance/internal/attendance"
	"smart-attendance/internal/config"
	"smart-attendance/internal/database"
)

var markCmd = &cobra.Command{
	Use:   "mark <photo>",
	Short: "Mark today's attendance from a classroom photo",
	Long: `Mark attendance for today from a single classroom photo.
Every face found in the photo is matched against the enrolled roster;
matched students are recorded present, everyone else absent.`,
	Args: cobra.ExactArgs(1),
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)
}

func runMark(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read photo: %w", err)
	}

	pool, students, records, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := attendance.NewService(students, records, newEncoderClient(cfg), matcherOptions(cfg))
	result, err := service.MarkAttendance(ctx, data)
	if err != nil {
		return fmt.Errorf("marking attendance: %w", err)
	}

	fmt.Printf("Run %s for %s\n", result.RunID, result.Date)
	fmt.Printf("Faces detected: %d, matched: %d\n", result.Stats.FacesDetected, result.Stats.FacesMatched)
	for _, outcome := range result.Attendance {
		switch outcome.Status {
		case database.StatusPresent:
			fmt.Printf("  present  %-30s (confidence %.2f)\n", outcome.Name, outcome.Confidence)
		case database.StatusError:
			fmt.Printf("  error    %-30s %s\n", outcome.Name, outcome.Error)
		default:
			fmt.Printf("  absent   %s\n", outcome.Name)
		}
	}
	fmt.Printf("Present %d / %d students\n", result.Stats.Present, result.Stats.TotalStudents)
	return nil
}
