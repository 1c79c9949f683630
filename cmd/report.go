package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"smart-attendance/internal/attendance"
	"smart-attendance/internal/config"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print attendance reports",
	Long: `Print attendance reports to the terminal.
Without flags the report covers today. With --start and --end it covers
the given date range; with --student it covers one student's history.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("start", "", "Range start date (YYYY-MM-DD)")
	reportCmd.Flags().String("end", "", "Range end date (YYYY-MM-DD)")
	reportCmd.Flags().Int64("student", 0, "Report a single student's history")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	pool, students, records, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := attendance.NewService(students, records, newEncoderClient(cfg), matcherOptions(cfg))

	start := mustGetString(cmd, "start")
	end := mustGetString(cmd, "end")
	studentID, err := cmd.Flags().GetInt64("student")
	if err != nil {
		panic(fmt.Sprintf("flag error for --student: %v", err))
	}

	switch {
	case studentID != 0:
		return reportStudent(ctx, service, studentID, start, end)
	case start != "" || end != "":
		return reportRange(ctx, service, start, end)
	default:
		return reportToday(ctx, service)
	}
}

func reportToday(ctx context.Context, service *attendance.Service) error {
	result, err := service.TodaysAttendance(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Attendance for %s\n", result.Date)
	for _, row := range result.Rows {
		fmt.Printf("  %-8s %s\n", row.Status, row.Name)
	}
	fmt.Printf("Present %d / %d\n", result.Stats.Present, result.Stats.Total)
	return nil
}

func reportRange(ctx context.Context, service *attendance.Service, start, end string) error {
	result, err := service.AttendanceRange(ctx, start, end)
	if err != nil {
		return err
	}

	for _, group := range result.Groups {
		fmt.Printf("%s\n", group.Date)
		for _, row := range group.Students {
			fmt.Printf("  %-8s %s\n", row.Status, row.Name)
		}
	}
	fmt.Printf("%d days, %d records, overall attendance %d%%\n",
		result.Stats.TotalDays, result.Stats.TotalRecords, result.Stats.OverallAttendanceRate)
	return nil
}

func reportStudent(ctx context.Context, service *attendance.Service, id int64, start, end string) error {
	result, err := service.StudentAttendance(ctx, id, start, end)
	if err != nil {
		return err
	}

	fmt.Printf("%s (id %d)\n", result.Student.Name, result.Student.ID)
	for _, rec := range result.History {
		fmt.Printf("  %s  %s\n", rec.Date, rec.Status)
	}
	fmt.Printf("Present %d / %d (%.2f%%)\n",
		result.Stats.Present, result.Stats.TotalRecords, result.Stats.AttendanceRate)
	return nil
}
