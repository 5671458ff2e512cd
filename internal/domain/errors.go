package domain

import (
	"errors"
	"fmt"
)

// Common domain errors. Callers wrap these with context via fmt.Errorf and %w;
// the RPC router classifies them with errors.Is / errors.As.
var (
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrProfileHasActiveTimer = errors.New("profile already has an active timer")
	ErrInvalidState          = errors.New("invalid timer state")
)

// ValidationError reports a domain invariant violation (empty title, bad color,
// duration out of bounds). It is a distinct type so the router can tell
// validation failures apart from storage failures.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
