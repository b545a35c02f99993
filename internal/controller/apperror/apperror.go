// Package apperror holds the error categories every domain package wraps.
// Handlers and message controllers classify failures with errors.Is against these.
package apperror

import "errors"

var (
	// ErrNotFound is returned when a referenced order, product or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCapacity is returned when a cart addition or checkout exceeds available stock.
	ErrCapacity = errors.New("insufficient stock")

	// ErrGuardViolation is returned when a transition is not permitted for the actor or current state.
	ErrGuardViolation = errors.New("transition not permitted")

	// ErrVerificationMismatch is returned when a submitted handoff code is not accepted.
	ErrVerificationMismatch = errors.New("verification failed")

	// ErrValidation is returned for malformed input at the service boundary.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is returned when credentials or tokens are missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
)
