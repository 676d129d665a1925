// Package common defines shared constants and sentinel errors used across
// client and server layers of Plume. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("forbidden")
	ErrorPreconditionFailed = errors.New("precondition failed")

	// Validation errors.
	ErrorInvalidInput = errors.New("invalid input")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
