package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"smart-attendance/internal/attendance"
	"smart-attendance/internal/database"
	"smart-attendance/internal/database/mock"
	"smart-attendance/internal/encoding"
)

// stubEncoder returns a canned payload or error without any HTTP.
type stubEncoder struct {
	payload json.RawMessage
	err     error
}

func (s *stubEncoder) ExtractEncodings(ctx context.Context, image []byte) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

// testJPEG produces a small decodable image.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// storedVector serializes a 128-component reference encoding.
func storedVector(t *testing.T, v float32) string {
	t.Helper()
	enc := make(encoding.FaceEncoding, encoding.DefaultDim)
	enc[0] = v
	stored, err := encoding.Marshal(enc)
	if err != nil {
		t.Fatalf("failed to marshal vector: %v", err)
	}
	return stored
}

// newTestService builds an attendance service over fresh mock stores.
func newTestService(t *testing.T, enc attendance.EncodingExtractor) (*attendance.Service, *mock.StudentStore, *mock.AttendanceStoreMock) {
	t.Helper()
	students := mock.NewStudentStore()
	store := mock.NewAttendanceStore(students, database.PolicyOverwrite)
	service := attendance.NewService(students, store, enc, attendance.Options{})
	return service, students, store
}

// multipartImageRequest builds a multipart POST with an "image" file plus any
// extra form fields.
func multipartImageRequest(t *testing.T, path string, imageData []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}
	if imageData != nil {
		part, err := writer.CreateFormFile("image", "frame.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(imageData); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams attaches chi URL parameters to a request.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses the recorded body into target
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}
