// Package encoding normalizes face feature vectors from the heterogeneous
// formats produced by the encoder service and older roster dumps into one
// canonical fixed-length form. Anything that reaches the matcher went through
// this package first.
package encoding

import (
	"encoding/json"
	"fmt"
	"math"
)

// DefaultDim is the dimension of a dlib-style face encoding.
const DefaultDim = 128

// FaceEncoding is a canonical face feature vector of a fixed dimension.
type FaceEncoding []float32

// ParseError reports a raw encoding payload that could not be normalized.
// Callers skip the offending record; a ParseError never aborts a batch.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse encoding: " + e.Reason
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// wrappedPayload is the keyed envelope some encoder responses use.
type wrappedPayload struct {
	Encodings json.RawMessage `json:"encodings"`
}

// ExtractAll parses a raw payload into every face encoding it contains.
// Accepted shapes:
//   - a flat numeric array of length dim (one face)
//   - a single-element array wrapping a flat array
//   - an array of flat arrays (multiple faces)
//   - a JSON string containing any of the above
//   - an object with an "encodings" field holding any of the above
//
// In a multi-face payload, a face whose length differs from dim is kept as a
// nil entry so callers still see it in the face count; an error is returned
// only when no face in the payload is usable.
func ExtractAll(raw json.RawMessage, dim int) ([]FaceEncoding, error) {
	if len(raw) == 0 {
		return nil, parseErrorf("empty payload")
	}

	// String-encoded payload needs a decode step before shape inspection.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ExtractAll(json.RawMessage(s), dim)
	}

	// Keyed envelope: {"encodings": [...]}.
	var wrapped wrappedPayload
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Encodings) > 0 {
		return ExtractAll(wrapped.Encodings, dim)
	}

	// Flat vector: one face.
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		if len(flat) != dim {
			return nil, parseErrorf("vector has %d components, want %d", len(flat), dim)
		}
		return []FaceEncoding{toFloat32(flat)}, nil
	}

	// Nested vectors: one per face. Covers the single-wrapped case too.
	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		out := make([]FaceEncoding, len(nested))
		usable := 0
		for i, v := range nested {
			if len(v) != dim {
				continue
			}
			out[i] = toFloat32(v)
			usable++
		}
		if usable == 0 {
			return nil, parseErrorf("none of %d faces has %d components", len(nested), dim)
		}
		return out, nil
	}

	return nil, parseErrorf("unrecognized payload shape")
}

// Parse normalizes a raw payload that is expected to hold exactly one face
// encoding. Multi-face payloads yield the first usable face.
func Parse(raw json.RawMessage, dim int) (FaceEncoding, error) {
	all, err := ExtractAll(raw, dim)
	if err != nil {
		return nil, err
	}
	for _, enc := range all {
		if enc != nil {
			return enc, nil
		}
	}
	return nil, parseErrorf("no usable face in payload")
}

// ParseStored normalizes the serialized encoding column of a roster row.
func ParseStored(stored string, dim int) (FaceEncoding, error) {
	return Parse(json.RawMessage(stored), dim)
}

// Marshal serializes a canonical encoding to its storage representation.
func Marshal(enc FaceEncoding) (string, error) {
	b, err := json.Marshal(enc)
	if err != nil {
		return "", fmt.Errorf("marshal encoding: %w", err)
	}
	return string(b), nil
}

// UnitNormalize divides the vector by its Euclidean norm. A zero vector is
// returned unchanged instead of producing NaNs.
func UnitNormalize(enc FaceEncoding) FaceEncoding {
	var sum float64
	for _, v := range enc {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return enc
	}
	out := make(FaceEncoding, len(enc))
	for i, v := range enc {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func toFloat32(v []float64) FaceEncoding {
	out := make(FaceEncoding, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
