package attendance

import "fmt"

// ValidationError reports a request the caller can fix: missing image,
// malformed date, no faces in the photo. Nothing was persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a missing prerequisite: an empty roster or an unknown
// student ID.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// UpstreamError reports a failure of the encoder service: unreachable, timed
// out, or a structured failure envelope. Kept distinct from ValidationError
// for logging even though the user-facing message may be generalized.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}
