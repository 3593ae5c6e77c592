package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service layer either wraps one of
// these or is treated as unexpected.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
)

var (
	ErrSessionNotFound     = fmt.Errorf("video session %w", ErrNotFound)
	ErrRecordingNotFound   = fmt.Errorf("recording %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrSessionCompleted    = fmt.Errorf("%w: video session already completed", ErrValidation)
)

// ValidationErrorf returns an error that matches ErrValidation.
func ValidationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
