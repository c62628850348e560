// Package users declares the account store contract and its PostgreSQL
// implementation.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the account store. Lookups return common.ErrorNotFound when no
// row matches. The two lockout methods are single atomic statements and
// report the number of rows they touched.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)

	// Create inserts a new account and fills ID, CreatedAt and UpdatedAt.
	// A taken email or nickname yields a *ConflictError.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// SaveVerificationChallenge stores a code digest and expiry and resets the
	// attempt counter.
	SaveVerificationChallenge(ctx context.Context, id string, codeHash string, expiry time.Time) error
	// ConsumeVerificationAttempt adds one attempt and returns the new count,
	// but only while the count is below maxAttempts. The check and the
	// increment are one atomic step; when no row qualifies (unknown id or
	// attempts used up) it returns common.ErrorNotFound.
	ConsumeVerificationAttempt(ctx context.Context, id string, maxAttempts int) (int, error)
	// MarkEmailVerified sets the verified flag and clears the challenge.
	MarkEmailVerified(ctx context.Context, id string) error

	IncrementFailureAndMaybeLock(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (int64, error)
	ResetFailureAndStampLogin(ctx context.Context, id string, now time.Time) (int64, error)
}

// ConflictError reports a unique identity column that is already taken.
// It matches common.ErrorAlreadyExists.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", common.ErrorAlreadyExists, e.Field)
	}
	return fmt.Sprintf("%s: %s: %v", common.ErrorAlreadyExists, e.Field, e.Err)
}

func (e *ConflictError) Unwrap() []error {
	if e.Err == nil {
		return []error{common.ErrorAlreadyExists}
	}
	return []error{common.ErrorAlreadyExists, e.Err}
}
