package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"smart-attendance/internal/attendance"
	"smart-attendance/internal/database"
	"smart-attendance/internal/encoding"
	"smart-attendance/internal/imaging"
	"smart-attendance/internal/roster"
)

// duplicateThreshold is the maximum distance at which an enrollment photo is
// considered the same person as an existing student.
const duplicateThreshold = 0.4

// StudentsHandler handles roster management endpoints.
type StudentsHandler struct {
	repo    database.StudentWriter
	encoder attendance.EncodingExtractor
	index   *roster.Index
	dim     int
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(repo database.StudentWriter, enc attendance.EncodingExtractor, index *roster.Index, dim int) *StudentsHandler {
	return &StudentsHandler{
		repo:    repo,
		encoder: enc,
		index:   index,
		dim:     dim,
	}
}

// encodeUpload runs the uploaded image through the encoding service and
// returns the raw payload plus the first face's canonical vector.
func (h *StudentsHandler) encodeUpload(r *http.Request) (string, encoding.FaceEncoding, error) {
	data, err := readUploadedImage(r)
	if err != nil {
		return "", nil, errors.New("no image file provided")
	}

	prepared, err := imaging.Prepare(data, imaging.MaxDimension)
	if err != nil {
		return "", nil, fmt.Errorf("could not decode image: %w", err)
	}

	raw, err := h.encoder.ExtractEncodings(r.Context(), prepared)
	if err != nil {
		return "", nil, fmt.Errorf("encoding service failed: %w", err)
	}
	if raw == nil {
		return "", nil, errors.New("no face detected in the image")
	}

	vec, err := encoding.Parse(raw, h.dim)
	if err != nil {
		return "", nil, fmt.Errorf("invalid face encoding: %w", err)
	}

	return string(raw), vec, nil
}

// Create handles POST /students. Expects a multipart form with "name",
// optional "email" and an "image" file with the student's face.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))

	stored, vec, err := h.encodeUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Warn about likely duplicate enrollments but do not block them. Twins
	// and re-enrollments after a camera change are both legitimate.
	var duplicateOf *database.Student
	if nearest, distances, err := h.repo.FindNearest(r.Context(), vec, 1); err != nil {
		log.Printf("duplicate check failed: %v", err)
	} else if len(nearest) > 0 && distances[0] < duplicateThreshold {
		duplicateOf = &nearest[0]
	}

	student := &database.Student{
		Name:         name,
		Email:        email,
		FaceEncoding: stored,
	}
	id, err := h.repo.Create(r.Context(), student, vec)
	if err != nil {
		log.Printf("could not create student: %v", err)
		respondError(w, http.StatusInternalServerError, "could not create student")
		return
	}
	student.ID = id

	if h.index != nil {
		if err := h.index.Add(*student); err != nil {
			log.Printf("could not index student %d: %v", id, err)
		}
	}

	resp := map[string]any{"student": student}
	if duplicateOf != nil {
		resp["possible_duplicate_of"] = duplicateOf
	}
	respondJSON(w, http.StatusCreated, resp)
}

// List handles GET /students with an optional name= filter. The filter is
// diacritics-insensitive so "Novak" finds "Novák".
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("could not list students: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list students")
		return
	}

	if filter := r.URL.Query().Get("name"); filter != "" {
		want := roster.NormalizeName(filter)
		filtered := students[:0]
		for _, s := range students {
			if strings.Contains(roster.NormalizeName(s.Name), want) {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"students": students,
		"count":    len(students),
	})
}

// Delete handles DELETE /students/{id}.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "student not found")
			return
		}
		log.Printf("could not delete student %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "could not delete student")
		return
	}

	if h.index != nil {
		h.index.Remove(id)
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// Identify handles POST /students/identify. Takes a single-face photo and
// returns the closest enrolled students from the in-memory index.
func (h *StudentsHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	_, vec, err := h.encodeUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	entries, err := h.index.Search(vec, limit)
	if err != nil {
		log.Printf("identify search failed: %v", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"matches": entries,
		"count":   len(entries),
	})
}
