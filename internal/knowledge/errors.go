package knowledge

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingField is returned when a response lacks a field the client needs.
var ErrMissingField = errors.New("response is missing a required field")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// DecodeError reports a response body that is not the expected JSON.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServiceError is a failure the service reported in an {"error": ...} body.
// The service uses HTTP 200 for these.
type ServiceError struct {
	Op      string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service error: %s", e.Op, e.Message)
}

// IsTransient reports whether err may clear up on its own: a transport
// failure or a 5xx/429 response. Malformed and service-reported failures are
// not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var decodeErr *DecodeError
	var serviceErr *ServiceError
	if errors.As(err, &decodeErr) || errors.As(err, &serviceErr) || errors.Is(err, ErrMissingField) {
		return false
	}
	return true
}
