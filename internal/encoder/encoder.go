// Package encoder is the HTTP client for the external face encoding service.
// The service is opaque: it receives an image and returns zero or more
// feature vectors in one of several shapes, which internal/encoding
// normalizes afterwards.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const defaultEncoderURL = "http://localhost:5001"

// Client calls the face encoding service.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a new encoder client. timeout bounds every extraction call;
// zero means 30 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultEncoderURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// encodeResponse is the service's response envelope. Encoding may be a flat
// vector, a nested array of vectors, or a serialized form of either.
type encodeResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Encoding json.RawMessage `json:"encoding"`
}

// ExtractEncodings posts the image to the service and returns the raw
// encoding payload. A success:false envelope or a non-200 status is returned
// as an error; a success envelope with a null encoding means no face was
// found and yields an empty payload, not an error.
func (c *Client) ExtractEncodings(ctx context.Context, image []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="frame.jpg"`)
	h.Set("Content-Type", detectMIMEType(image))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/encode-face", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("encoder request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("encoder error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope encodeResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "unspecified error"
		}
		return nil, fmt.Errorf("encoder failure: %s", msg)
	}

	if len(envelope.Encoding) == 0 || string(envelope.Encoding) == "null" {
		return nil, nil
	}
	return envelope.Encoding, nil
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
