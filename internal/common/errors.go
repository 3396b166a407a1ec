package common

import (
	"errors"
	"fmt"
)

// Request error taxonomy. Services return these (wrapped with detail) and
// the HTTP layer maps them to status codes. None of them is fatal to the
// process; all are per-request.
var (
	// ErrUnauthorized means no or invalid identity on the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller is authenticated but not entitled:
	// wrong sender, or not a participant of the conversation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the referenced conversation, message or user is absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrStore means an underlying store operation failed; possibly transient.
	ErrStore = errors.New("store operation failed")
)

// ValidationError wraps ErrValidation with a field-level reason.
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StoreError wraps an underlying database error into the taxonomy.
func StoreError(err error) error {
	return fmt.Errorf("%w: %v", ErrStore, err)
}
