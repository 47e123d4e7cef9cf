package azuread

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrNilParameter       = errors.New("nil parameter")
	ErrInvalidCACert      = errors.New("invalid CA certificate")
	ErrMissingAccessToken = errors.New("access_token is missing")
)

// ResponseDecodeError is returned when the token endpoint's response body
// does not parse as a token response. Body preserves the raw response text
// verbatim so callers can inspect provider error payloads such as
// {"error": ..., "error_description": ...}.
type ResponseDecodeError struct {
	// StatusCode is the HTTP status of the token endpoint response.
	StatusCode int

	// Body is the raw response text.
	Body string

	err error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("unable to decode token response (status %d): %v: %s", e.StatusCode, e.err, e.Body)
}

func (e *ResponseDecodeError) Unwrap() error {
	return e.err
}
