package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports every offending field at once so a caller fixing a
// multi-field submission sees the full list in one round trip.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("the fields %v were empty", e.Fields)
}

// NewValidationError builds a ValidationError for the given field names.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// MatchError signals a value that does not match any allowed variant.
type MatchError struct {
	Field   string
	Allowed []string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("field %s does not match any of: %s", e.Field, strings.Join(e.Allowed, ", "))
}

// DeserializationError signals a stored representation that could not be
// decoded back into its domain type.
type DeserializationError struct {
	Field string
	Err   error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("failed to deserialize field %s: %v", e.Field, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// MeasurementError signals a free-text measurement that could not be parsed.
type MeasurementError struct {
	Input string
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("failed to compute measurement from the following string: %s", e.Input)
}
