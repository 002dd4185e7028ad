package http

import "fmt"

// ErrorType represents the category of provider failure.
type ErrorType int

const (
	ErrTypeTransport ErrorType = iota
	ErrTypeTimeout
	ErrTypeAuthentication
	ErrTypeRateLimit
	ErrTypeVendor
	ErrTypeEmptyContent
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeTransport:
		return "transport failure"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeVendor:
		return "vendor error"
	case ErrTypeEmptyContent:
		return "empty content"
	default:
		return "unknown error"
	}
}

// Error is the uniform failure type for provider calls. Transport
// problems, vendor-reported errors, and empty responses all normalize to
// it; raw vendor payloads never travel further up the pipeline.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Provider   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Type.String(), e.Message)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewTransportError creates an error for connect or TLS failures.
func NewTransportError(provider, message string) *Error {
	return &Error{Type: ErrTypeTransport, Message: message, Provider: provider}
}

// NewTimeoutError creates an error for requests that exceeded the deadline.
func NewTimeoutError(provider, message string) *Error {
	return &Error{Type: ErrTypeTimeout, Message: message, Provider: provider}
}

// NewAuthenticationError creates an error for rejected credentials.
func NewAuthenticationError(provider, message string) *Error {
	return &Error{Type: ErrTypeAuthentication, Message: message, StatusCode: 401, Provider: provider}
}

// NewRateLimitError creates an error for vendor-side throttling.
func NewRateLimitError(provider, message string) *Error {
	return &Error{Type: ErrTypeRateLimit, Message: message, StatusCode: 429, Provider: provider}
}

// NewVendorError creates an error for a vendor-reported failure payload.
func NewVendorError(provider, message string, statusCode int) *Error {
	return &Error{Type: ErrTypeVendor, Message: message, StatusCode: statusCode, Provider: provider}
}

// NewEmptyContentError creates an error for responses that succeeded but
// returned no text.
func NewEmptyContentError(provider string) *Error {
	return &Error{Type: ErrTypeEmptyContent, Message: "no email content found", Provider: provider}
}
