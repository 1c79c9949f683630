package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smart-attendance",
	Short: "Face recognition attendance for classrooms",
	Long: `Smart Attendance marks classroom attendance from a single photo.
It sends the photo to a face encoding service, matches the returned
encodings against the enrolled student roster and records one
present/absent outcome per student per day.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
