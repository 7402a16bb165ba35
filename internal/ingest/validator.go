// Package ingest decides which offered image files join a collection.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultMaxImages    = 5
	DefaultMaxSizeBytes = 2 * MiB

	MiB = 1024 * 1024

	imageTypePrefix = "image/"
)

// Validator bounds a collection by count and per-item size.
type Validator struct {
	MaxImages    int
	MaxSizeBytes int64
}

// Decision is the outcome of one Admit call. Reason is empty when every
// candidate was admitted; otherwise Err holds the matching *RejectionError.
type Decision struct {
	Admitted []Candidate
	Reason   string
	Err      error
}

// NewValidator returns a Validator with the default limits.
func NewValidator() Validator {
	return Validator{MaxImages: DefaultMaxImages, MaxSizeBytes: DefaultMaxSizeBytes}
}

// Admit picks the candidates that may be appended to a collection already
// holding currentCount images. Only the first remaining-slot candidates are
// looked at. Each rejection overwrites the previous reason, and a batch
// larger than the remaining slots always reports the capacity reason.
func (v Validator) Admit(candidates []Candidate, currentCount int) Decision {
	remaining := max(v.MaxImages-currentCount, 0)

	var decision Decision
	for _, c := range candidates[:min(len(candidates), remaining)] {
		if rejection := v.check(c); rejection != nil {
			decision.reject(rejection)
			continue
		}
		decision.Admitted = append(decision.Admitted, c)
	}

	if len(candidates) > remaining {
		decision.reject(&RejectionError{
			Kind:    ErrCapacityExceeded,
			Message: v.CapacityMessage(),
		})
	}

	return decision
}

// Accepting reports whether a collection of count images can take more.
func (v Validator) Accepting(count int) bool {
	return count < v.MaxImages
}

func (v Validator) check(c Candidate) *RejectionError {
	if !strings.HasPrefix(c.ContentType, imageTypePrefix) {
		return &RejectionError{Kind: ErrInvalidType, Message: "Only image files are allowed", Name: c.Name}
	}
	if c.Size > v.MaxSizeBytes {
		return &RejectionError{Kind: ErrTooLarge, Message: v.SizeMessage(), Name: c.Name}
	}
	return nil
}

// SizeMessage is the text shown for an oversized file.
func (v Validator) SizeMessage() string {
	return fmt.Sprintf("File size must be less than %sMB", formatMB(v.MaxSizeBytes))
}

// CapacityMessage is the text shown when a batch overflows the collection.
func (v Validator) CapacityMessage() string {
	return fmt.Sprintf("You can only upload %d images total", v.MaxImages)
}

// Limits describes the constraints for display, e.g. "Max 5 images, 2MB each".
func (v Validator) Limits() string {
	return fmt.Sprintf("Max %d images, %sMB each", v.MaxImages, formatMB(v.MaxSizeBytes))
}

func (d *Decision) reject(r *RejectionError) {
	d.Reason = r.Message
	d.Err = r
}

func formatMB(b int64) string {
	return strconv.FormatFloat(float64(b)/MiB, 'f', -1, 64)
}
