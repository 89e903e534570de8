package domain

import "errors"

// Validation causes, one per distinct client error condition.
var (
	ErrMessageEmpty    = errors.New("message is required")
	ErrMessageTooLong  = errors.New("message exceeds the 2000 character limit")
	ErrInvalidFileType = errors.New("invalid file type, only PDF is accepted")
	ErrFileTooLarge    = errors.New("file size exceeds the 5MB limit")
	ErrTooManyPages    = errors.New("PDF exceeds the 20-page limit")
	ErrFileUnreadable  = errors.New("could not read the PDF file, it may be corrupted")
)

// ValidationError marks a client-input failure that is rejected before
// any provider call.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string { return e.Cause.Error() }
func (e *ValidationError) Unwrap() error { return e.Cause }

// NewValidationError wraps a validation cause.
func NewValidationError(cause error) *ValidationError {
	return &ValidationError{Cause: cause}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
