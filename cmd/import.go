package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"smart-attendance/internal/config"
	"smart-attendance/internal/database/mariadb"
	"smart-attendance/internal/encoding"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import students from a legacy MySQL/MariaDB deployment",
	Long: `Import the student roster from the previous attendance system.
Face encodings are carried over verbatim; rows whose encoding cannot be
parsed are imported without a searchable vector and logged.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("mysql-dsn", "", "Legacy database DSN, e.g. user:pass@tcp(host:3306)/attendance (required)")
	importCmd.Flags().Bool("dry-run", false, "Read the legacy roster without writing anything")
	_ = importCmd.MarkFlagRequired("mysql-dsn")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	dsn := mustGetString(cmd, "mysql-dsn")
	dryRun := mustGetBool(cmd, "dry-run")

	legacy, err := mariadb.Open(dsn)
	if err != nil {
		return err
	}
	defer legacy.Close()

	students, err := legacy.Students(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d students in the legacy database\n", len(students))

	if dryRun {
		for _, s := range students {
			fmt.Printf("  %d  %s\n", s.ID, s.Name)
		}
		return nil
	}

	pool, repo, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	bar := progressbar.NewOptions(len(students),
		progressbar.OptionSetDescription("Importing students"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("students"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	imported, unparsed := 0, 0
	for _, s := range students {
		vec, err := encoding.ParseStored(s.FaceEncoding, cfg.Encoder.Dim)
		if err != nil {
			log.Printf("student %d (%s): unparseable encoding, imported without vector: %v", s.ID, s.Name, err)
			unparsed++
			vec = nil
		}

		student := s
		student.ID = 0
		if _, err := repo.Create(ctx, &student, vec); err != nil {
			return fmt.Errorf("could not import student %s: %w", s.Name, err)
		}
		imported++
		_ = bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Imported %d students (%d without a searchable vector)\n", imported, unparsed)
	return nil
}
