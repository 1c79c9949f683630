package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smart-attendance/internal/database"
	"smart-attendance/internal/database/mock"
	"smart-attendance/internal/encoding"
	"smart-attendance/internal/roster"
)

func newStudentsHandler(t *testing.T, enc *stubEncoder) (*StudentsHandler, *mock.StudentStore) {
	t.Helper()
	students := mock.NewStudentStore()
	index := roster.NewIndex(encoding.DefaultDim)
	index.Rebuild(nil)
	return NewStudentsHandler(students, enc, index, encoding.DefaultDim), students
}

func TestStudentsHandler_Create_Success(t *testing.T) {
	enc := &stubEncoder{payload: json.RawMessage(storedVector(t, 0.1))}
	handler, students := newStudentsHandler(t, enc)

	req := multipartImageRequest(t, "/api/v1/students", testJPEG(t), map[string]string{
		"name":  "Alice",
		"email": "alice@example.com",
	})
	recorder := httptest.NewRecorder()

	handler.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)

	var result struct {
		Student database.Student `json:"student"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Student.ID == 0 || result.Student.Name != "Alice" {
		t.Errorf("unexpected student: %+v", result.Student)
	}

	stored, err := students.Get(req.Context(), result.Student.ID)
	if err != nil || stored == nil {
		t.Fatalf("student not persisted: %v", err)
	}
	// The raw payload must be stored verbatim.
	if stored.FaceEncoding != storedVector(t, 0.1) {
		t.Error("reference encoding was not stored verbatim")
	}
}

func TestStudentsHandler_Create_MissingName(t *testing.T) {
	handler, _ := newStudentsHandler(t, &stubEncoder{})

	req := multipartImageRequest(t, "/api/v1/students", testJPEG(t), nil)
	recorder := httptest.NewRecorder()

	handler.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestStudentsHandler_Create_NoFace(t *testing.T) {
	// nil payload means the encoder saw no face.
	handler, _ := newStudentsHandler(t, &stubEncoder{})

	req := multipartImageRequest(t, "/api/v1/students", testJPEG(t), map[string]string{"name": "Alice"})
	recorder := httptest.NewRecorder()

	handler.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestStudentsHandler_Create_FlagsDuplicate(t *testing.T) {
	enc := &stubEncoder{payload: json.RawMessage(storedVector(t, 0.1))}
	handler, students := newStudentsHandler(t, enc)

	first := multipartImageRequest(t, "/api/v1/students", testJPEG(t), map[string]string{"name": "Alice"})
	handler.Create(httptest.NewRecorder(), first)

	if count, _ := students.Count(first.Context()); count != 1 {
		t.Fatalf("expected 1 student after first enrollment, got %d", count)
	}

	second := multipartImageRequest(t, "/api/v1/students", testJPEG(t), map[string]string{"name": "Alice Again"})
	recorder := httptest.NewRecorder()
	handler.Create(recorder, second)

	// The duplicate is flagged but still created.
	assertStatusCode(t, recorder, http.StatusCreated)

	var result map[string]json.RawMessage
	parseJSONResponse(t, recorder, &result)
	if _, ok := result["possible_duplicate_of"]; !ok {
		t.Error("expected a duplicate warning for a re-enrolled face")
	}
	if count, _ := students.Count(second.Context()); count != 2 {
		t.Errorf("expected 2 students, got %d", count)
	}
}

func TestStudentsHandler_List(t *testing.T) {
	handler, students := newStudentsHandler(t, &stubEncoder{})
	students.Add(database.Student{Name: "Jan Novák"})
	students.Add(database.Student{Name: "Alice"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Students []database.Student `json:"students"`
		Count    int                `json:"count"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Count != 2 {
		t.Errorf("expected 2 students, got %d", result.Count)
	}
}

func TestStudentsHandler_List_NameFilterIgnoresDiacritics(t *testing.T) {
	handler, students := newStudentsHandler(t, &stubEncoder{})
	students.Add(database.Student{Name: "Jan Novák"})
	students.Add(database.Student{Name: "Alice"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students?name=novak", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	var result struct {
		Students []database.Student `json:"students"`
		Count    int                `json:"count"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Count != 1 || result.Students[0].Name != "Jan Novák" {
		t.Errorf("unexpected filter result: %+v", result)
	}
}

func TestStudentsHandler_Delete(t *testing.T) {
	handler, students := newStudentsHandler(t, &stubEncoder{})
	id := students.Add(database.Student{Name: "Alice"})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/students/1", nil)
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()

	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	if s, _ := students.Get(req.Context(), id); s != nil {
		t.Error("student should be gone")
	}
}

func TestStudentsHandler_Delete_NotFound(t *testing.T) {
	handler, _ := newStudentsHandler(t, &stubEncoder{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/students/42", nil)
	req = requestWithChiParams(req, map[string]string{"id": "42"})
	recorder := httptest.NewRecorder()

	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestStudentsHandler_Identify(t *testing.T) {
	enc := &stubEncoder{payload: json.RawMessage(storedVector(t, 0.1))}
	students := mock.NewStudentStore()
	students.Add(database.Student{Name: "Alice", FaceEncoding: storedVector(t, 0.1)})
	students.Add(database.Student{Name: "Bob", FaceEncoding: storedVector(t, 5.0)})

	index := roster.NewIndex(encoding.DefaultDim)
	all, err := students.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	index.Rebuild(all)

	handler := NewStudentsHandler(students, enc, index, encoding.DefaultDim)
	req := multipartImageRequest(t, "/api/v1/students/identify?limit=1", testJPEG(t), nil)
	recorder := httptest.NewRecorder()

	handler.Identify(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Matches []roster.IndexEntry `json:"matches"`
		Count   int                 `json:"count"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Count != 1 {
		t.Fatalf("expected 1 match, got %d", result.Count)
	}
	if result.Matches[0].Student.Name != "Alice" {
		t.Errorf("expected Alice, got %s", result.Matches[0].Student.Name)
	}
}
