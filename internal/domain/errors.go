package domain

import (
	"errors"
	"strings"
)

// ErrInjectionBlocked indicates the injection guard rejected the request.
// The original text is never echoed back; callers surface a single generic
// message instead.
var ErrInjectionBlocked = errors.New("input contains potentially malicious content")

// ValidationError carries the accumulated field-level error messages for a
// request that failed validation. Validators run independently and their
// messages are merged, so Messages preserves the order in which fields were
// checked.
type ValidationError struct {
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// NewValidationError wraps a non-empty message list.
func NewValidationError(messages []string) *ValidationError {
	return &ValidationError{Messages: messages}
}
