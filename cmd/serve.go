package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smart-attendance/internal/attendance"
	"smart-attendance/internal/config"
	"smart-attendance/internal/roster"
	"smart-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the Smart Attendance web server.
The server exposes the roster and attendance API used by the classroom
frontend: enrolling students, marking attendance from a photo and
querying daily and per-student reports.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, studentRepo, attendanceRepo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	enc := newEncoderClient(cfg)
	service := attendance.NewService(studentRepo, attendanceRepo, enc, matcherOptions(cfg))

	fmt.Printf("Building in-memory index for student identification...\n")
	index := roster.NewIndex(cfg.Encoder.Dim)
	all, err := studentRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load student roster: %w", err)
	}
	index.Rebuild(all)
	fmt.Printf("Roster index built with %d students\n", index.Len())

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(web.Deps{
		Service:  service,
		Students: studentRepo,
		Encoder:  enc,
		Index:    index,
		Dim:      cfg.Encoder.Dim,
		Env:      cfg.Env,
	}, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Smart Attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
