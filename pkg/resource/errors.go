package resource

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoURL is returned when a resource has no URL to talk to.
var ErrNoURL = errors.New("no url")

// TransportError is returned when the request never produced a response.
// Callers see it with status 500.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("problem with request %s %s: %v", e.Method, e.URL, e.Cause)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// StatusError is returned for a response outside the 2xx range.
type StatusError struct {
	Method  string
	URL     string
	Status  int
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Message)
}

// DeserializationError is returned when a read body is not the expected JSON.
type DeserializationError struct {
	URL    string
	Status int
	Cause  error
}

// Error implements the error interface.
func (e *DeserializationError) Error() string {
	return fmt.Sprintf("cannot parse response from %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DeserializationError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the status a caller's Error callback receives for err:
// the response status when there was one, 500 for transport failures and 0
// when no request was made.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	var decodeErr *DeserializationError
	if errors.As(err, &decodeErr) {
		return decodeErr.Status
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return http.StatusInternalServerError
	}
	return 0
}
