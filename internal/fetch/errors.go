package fetch

import (
	"errors"
	"fmt"
)

// ErrBodyTooLarge is returned (wrapped in a FetchError) when the response body
// exceeds the configured maximum size.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// FetchError reports a network failure, timeout or non-2xx status.
//
//nolint:revive // fetch.FetchError reads naturally next to DecodeError
type FetchError struct {
	// URL is the requested image URL.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Timeout is true when the request hit the deadline.
	Timeout bool

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out", e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: failed", e.URL)
	}
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports a body that could not be decoded as an image.
type DecodeError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
