package account

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the token (or the resource behind it) is unknown.
	// Surfaced generically so callers cannot probe which resource missed.
	ErrNotFound = errors.New("not found")
	// ErrExpired means the token exists but is past its expiry. Distinct
	// from ErrNotFound so a client can prompt for re-issuance.
	ErrExpired = errors.New("token expired")
)

// ValidationError reports malformed or conflicting input with per-field
// detail.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// AsValidationError unwraps err into a ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
