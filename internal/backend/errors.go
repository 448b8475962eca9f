package backend

import (
	"errors"
	"fmt"
)

// ConflictError means the backend rejected a booking because the exact
// service/date/time slot is already taken. The conflicting pair is echoed
// back for the user-facing message.
type ConflictError struct {
	Date string
	Time string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot already taken: %s %s", e.Date, e.Time)
}

// AuthError means credentials are missing or expired. Callers clear session
// state and prompt for re-authentication.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (http %d)", e.Status)
}

// ValidationError carries field-level messages from the backend.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backend rejected %d field(s)", len(e.Fields))
}

// TransportError wraps network and timeout failures. These are retryable:
// the draft is preserved and the user may submit again.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrAlreadyCancelled marks a cancel of a booking the backend no longer has
// active. Callers treat it as success.
var ErrAlreadyCancelled = errors.New("booking already cancelled")
