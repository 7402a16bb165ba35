package ingest

import "errors"

// Rejection kinds. A RejectionError unwraps to exactly one of these.
var (
	ErrInvalidType      = errors.New("candidate is not an image")
	ErrTooLarge         = errors.New("candidate exceeds size limit")
	ErrCapacityExceeded = errors.New("batch exceeds image limit")
)

// RejectionError is the user-facing reason a batch was not fully admitted.
type RejectionError struct {
	Kind    error
	Message string
	// Name is the offending file, empty for capacity rejections.
	Name string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}
