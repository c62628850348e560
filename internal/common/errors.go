// Package common defines shared constants and sentinel errors used across
// the server and client sides of gophauth. Callers should match them with
// errors.Is; errors that carry a payload are matched with errors.As (see
// error.go).
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Infrastructure failures: store, notifier or hashing unavailable.
	ErrInfrastructure = errors.New("infrastructure failure")

	// Login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrEmailNotVerified   = errors.New("email not verified")

	// Signup.
	ErrDuplicateIdentity = errors.New("identity already registered")
	ErrAgeRestricted     = errors.New("age restricted")

	// Email verification.
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyVerified   = errors.New("email already verified")
	ErrNoChallengeIssued = errors.New("no verification code issued")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
	ErrChallengeExpired  = errors.New("verification code expired")
	ErrCodeMismatch      = errors.New("verification code mismatch")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
