package common

import (
	"fmt"
	"time"
)

// AccountLockedError reports a login attempt against a locked account.
type AccountLockedError struct {
	Until            time.Time
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("%s: retry in %d minute(s)", ErrAccountLocked, e.RemainingMinutes)
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

// NewAccountLockedError computes the remaining lock time, rounded up to whole
// minutes so a caller never sees "0 minutes" while still locked.
func NewAccountLockedError(until, now time.Time) *AccountLockedError {
	remaining := until.Sub(now)
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute > 0 {
		minutes++
	}
	return &AccountLockedError{Until: until, RemainingMinutes: minutes}
}

// Identity fields that must be unique.
const (
	FieldEmail    = "email"
	FieldNickname = "nickname"
)

// DuplicateIdentityError reports which unique identity field is taken.
type DuplicateIdentityError struct {
	Field string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateIdentity, e.Field)
}

func (e *DuplicateIdentityError) Unwrap() error { return ErrDuplicateIdentity }

// AgeRestrictedError reports a signup below the minimum age.
type AgeRestrictedError struct {
	MinimumAge int
}

func (e *AgeRestrictedError) Error() string {
	return fmt.Sprintf("%s: must be at least %d years old", ErrAgeRestricted, e.MinimumAge)
}

func (e *AgeRestrictedError) Unwrap() error { return ErrAgeRestricted }

// CodeMismatchError reports a wrong verification code and how many tries are left.
type CodeMismatchError struct {
	AttemptsRemaining int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("%s: %d attempt(s) remaining", ErrCodeMismatch, e.AttemptsRemaining)
}

func (e *CodeMismatchError) Unwrap() error { return ErrCodeMismatch }

// InfrastructureError wraps a failure of a collaborator (store, notifier,
// signer). It matches ErrInfrastructure and unwraps to the cause.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInfrastructure, e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

func (e *InfrastructureError) Is(target error) bool { return target == ErrInfrastructure }

// Infra wraps err as an InfrastructureError for op. A nil err stays nil.
func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InfrastructureError{Op: op, Err: err}
}
