package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"smart-attendance/internal/config"
	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
	"smart-attendance/internal/imaging"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <photo>",
	Short: "Enroll a student from a face photo",
	Long: `Enroll a new student into the attendance roster.
The photo should contain a single clearly visible face. It is sent to
the face encoding service and the resulting encoding becomes the
student's reference for all future attendance runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Student name (required)")
	enrollCmd.Flags().String("email", "", "Student email")
	_ = enrollCmd.MarkFlagRequired("name")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	name := mustGetString(cmd, "name")
	email := mustGetString(cmd, "email")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read photo: %w", err)
	}

	prepared, err := imaging.Prepare(data, imaging.MaxDimension)
	if err != nil {
		return fmt.Errorf("could not decode photo: %w", err)
	}

	enc := newEncoderClient(cfg)
	raw, err := enc.ExtractEncodings(ctx, prepared)
	if err != nil {
		return fmt.Errorf("encoding service failed: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("no face detected in %s", args[0])
	}

	vec, err := encoding.Parse(raw, cfg.Encoder.Dim)
	if err != nil {
		return fmt.Errorf("invalid face encoding: %w", err)
	}

	pool, students, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	student := &database.Student{
		Name:         name,
		Email:        email,
		FaceEncoding: string(raw),
	}
	id, err := students.Create(ctx, student, vec)
	if err != nil {
		return fmt.Errorf("could not create student: %w", err)
	}

	fmt.Printf("Enrolled %s (id %d)\n", name, id)
	return nil
}
