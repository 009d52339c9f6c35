// Package common defines shared constants and sentinel errors used across
// the task manager server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrorConflict         = errors.New("already exists")
	ErrorStoreUnavailable = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidInput = errors.New("invalid input")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrTooManyAttempts    = errors.New("too many login attempts")

	// Conditional update errors.
	ErrPreconditionFailed = errors.New("precondition failed")
)
