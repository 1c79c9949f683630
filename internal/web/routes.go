package web

import (
	"github.com/go-chi/chi/v5"

	"smart-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	handlers.EnableVerboseErrors(deps.Env != "production")

	// Create handlers
	attendanceHandler := handlers.NewAttendanceHandler(deps.Service)
	studentsHandler := handlers.NewStudentsHandler(deps.Students, deps.Encoder, deps.Index, deps.Dim)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Students
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Create)
		r.Delete("/students/{id}", studentsHandler.Delete)
		r.Post("/students/identify", studentsHandler.Identify)

		// Attendance
		r.Post("/attendance/mark", attendanceHandler.Mark)
		r.Get("/attendance/today", attendanceHandler.Today)
		r.Get("/attendance/range", attendanceHandler.Range)
		r.Get("/attendance/students/{id}", attendanceHandler.Student)
	})
}
