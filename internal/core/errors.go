package core

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups for rows that do not exist or are not owned by
// the caller. Wrap it with context: fmt.Errorf("sale %s not found: %w", id, ErrNotFound).
var ErrNotFound = errors.New("not found")

// ValidationError rejects malformed input before any transaction is opened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
