package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"smart-attendance/internal/attendance"
)

// MaxUploadSize caps multipart uploads at 16 MB, enough for a classroom photo.
const MaxUploadSize = 16 << 20

// verboseErrors exposes internal error details in 500 responses. Off in
// production.
var verboseErrors bool

// EnableVerboseErrors toggles internal error details in 500 responses.
func EnableVerboseErrors(v bool) {
	verboseErrors = v
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps attendance service errors to HTTP status codes.
// Unexpected errors are logged and surface as a bare 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var validation *attendance.ValidationError
	if errors.As(err, &validation) {
		respondError(w, http.StatusBadRequest, validation.Message)
		return
	}
	var notFound *attendance.NotFoundError
	if errors.As(err, &notFound) {
		respondError(w, http.StatusNotFound, notFound.Message)
		return
	}
	var upstream *attendance.UpstreamError
	if errors.As(err, &upstream) {
		log.Printf("encoder error: %v", err)
		respondError(w, http.StatusBadGateway, upstream.Message)
		return
	}
	log.Printf("internal error: %v", err)
	message := "internal server error"
	if verboseErrors {
		message = err.Error()
	}
	respondError(w, http.StatusInternalServerError, message)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
