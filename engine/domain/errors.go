package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrMalformedRecord    = errors.New("malformed record")
	ErrUnknownSport       = errors.New("unknown sport")
	ErrUnknownContentType = errors.New("unknown content type")
	ErrUnknownStatus      = errors.New("unknown status")
	ErrMissingContentHash = errors.New("missing content hash")
	ErrEmbedding          = errors.New("embedding failed")
	ErrStore              = errors.New("store write failed")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// SourceError records a source that was skipped during a run.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
