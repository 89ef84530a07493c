package httpclient

import (
	"errors"
	"fmt"
)

// ErrTooManyRedirects is wrapped by a RedirectError once MaxRedirects 307 hops were followed.
var ErrTooManyRedirects = errors.New("httpclient: too many redirects")

// StatusError is returned for 4xx and 5xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string // truncated
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// HTTPStatus returns the response status.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// NetworkError is returned when no response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("httpclient: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatus is always 0: there was no response.
func (e *NetworkError) HTTPStatus() int { return 0 }

// RedirectError reports a 3xx response that was not followed transparently.
// Common causes are scheme-upgrade proxies and trailing-slash mismatches.
type RedirectError struct {
	Method     string
	URL        string
	StatusCode int
	Location   string
	Err        error // ErrTooManyRedirects when the hop limit was hit
}

func (e *RedirectError) Error() string {
	msg := fmt.Sprintf("httpclient: %s %s: redirect %d to %q", e.Method, e.URL, e.StatusCode, e.Location)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RedirectError) Unwrap() error { return e.Err }

// HTTPStatus returns the 3xx status.
func (e *RedirectError) HTTPStatus() int { return e.StatusCode }
