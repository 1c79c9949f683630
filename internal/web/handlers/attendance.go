package handlers

import (
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"smart-attendance/internal/attendance"
)

// AttendanceHandler handles attendance marking and reporting endpoints.
type AttendanceHandler struct {
	service *attendance.Service
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(service *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// readUploadedImage pulls the "image" multipart file into a temp file and
// returns its bytes. The temp file exists only for the duration of the
// request; a failed cleanup is logged, never surfaced.
func readUploadedImage(r *http.Request) ([]byte, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "attendance-frame-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil {
			log.Printf("could not remove temp file %s: %v", tmp.Name(), err)
		}
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(tmp)
	if err != nil {
		return nil, err
	}
	log.Printf("received attendance frame %s (%d bytes)", sanitizeForLog(header.Filename), len(data))
	return data, nil
}

// Mark handles POST /attendance/mark. Expects a multipart form with a single
// "image" file containing the classroom photo.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	data, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "no image file provided")
		return
	}

	result, err := h.service.MarkAttendance(r.Context(), data)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Today handles GET /attendance/today.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.TodaysAttendance(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Range handles GET /attendance/range?start_date=...&end_date=...
func (h *AttendanceHandler) Range(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	result, err := h.service.AttendanceRange(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Student handles GET /attendance/students/{id} with optional start_date and
// end_date query parameters.
func (h *AttendanceHandler) Student(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	result, err := h.service.StudentAttendance(r.Context(), id, start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
