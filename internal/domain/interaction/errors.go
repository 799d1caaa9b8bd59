package interaction

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateInteraction signals that an interaction record already
	// exists for the unordered medication pair.
	ErrDuplicateInteraction = errors.New("interaction already exists for medication pair")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
