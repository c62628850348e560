// Package services contains the server-side business logic: the session
// orchestrator (login, signup, email verification, refresh, logout), the
// lockout counter and the refresh token store.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// PasswordHasher hashes new passwords and verifies candidates against stored
// hashes. Verify returns an error only when the stored hash is unusable.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Notifier delivers a raw verification code to its owner.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// Clock is the time source. Services default to time.Now.
type Clock func() time.Time

// Errors a caller is expected to act on; they pass through a transaction
// unchanged instead of being reported as infrastructure failures.
var domainErrors = []error{
	common.ErrInvalidCredentials,
	common.ErrAccountLocked,
	common.ErrAccountDisabled,
	common.ErrEmailNotVerified,
	common.ErrDuplicateIdentity,
	common.ErrAgeRestricted,
	common.ErrUserNotFound,
	common.ErrAlreadyVerified,
	common.ErrNoChallengeIssued,
	common.ErrTooManyAttempts,
	common.ErrChallengeExpired,
	common.ErrCodeMismatch,
	common.ErrInvalidToken,
	common.ErrTokenExpired,
}

// wrapInfra leaves domain and already-wrapped errors alone and turns anything
// else into an InfrastructureError for op.
func wrapInfra(op string, err error) error {
	if err == nil || errors.Is(err, common.ErrInfrastructure) {
		return err
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return common.Infra(op, err)
}
