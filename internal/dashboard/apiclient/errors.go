package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the resource is not found (HTTP 404)
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is returned for missing or rejected credentials (HTTP 401, 403)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRejected is returned when a stock or lifecycle rule refused the change (HTTP 409)
	ErrRejected = errors.New("rejected")

	// ErrVerificationFailed is returned when a handoff code did not match (HTTP 422)
	ErrVerificationFailed = errors.New("verification failed")

	// ErrServiceUnavailable is returned when the store is unavailable (HTTP 5xx, timeout)
	ErrServiceUnavailable = errors.New("bakery service unavailable")

	// ErrBadRequest is returned when the request is malformed (HTTP 400)
	ErrBadRequest = errors.New("bad request")
)

// APIError carries the server's error body. It unwraps to one of the sentinel errors above.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Outcome string `json:"outcome,omitempty"`
	kind    error
}

func (e *APIError) Error() string {
	if e.Outcome != "" {
		return fmt.Sprintf("%s (%s): %s", e.kind, e.Outcome, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}
