package drugdb

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that a requested source does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSyncInProgress signals that the source is already syncing.
	// Callers retry after the running sync finishes.
	ErrSyncInProgress = errors.New("sync already in progress for source")
	// ErrSyncFailed signals that the fetch step of a sync aborted. The
	// source's sync status is recorded as FAILED before this surfaces.
	ErrSyncFailed = errors.New("sync failed")
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
