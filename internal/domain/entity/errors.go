package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingField indicates that an event lacks a field required to build its message
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownKind indicates an event kind the notifier does not handle
	ErrUnknownKind = errors.New("unknown event kind")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// MissingFieldError reports the event kind and field that was absent.
// It matches ErrMissingField with errors.Is.
type MissingFieldError struct {
	Kind  Kind
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, ErrMissingField.Error(), e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
