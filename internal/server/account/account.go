// Package account holds the state transitions of a user account as plain
// functions over models.User. Nothing here touches storage: the repositories
// persist the results (or, for the lockout counter, run the same transition as
// one atomic SQL statement).
package account

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// IsLocked reports whether the lock is still in force at now. An expired lock
// is treated as no lock; it is cleared by the next successful login.
func IsLocked(u *models.User, now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CheckLoginAllowed runs the checks that come before the password:
// an active lock, then the administrative kill switch.
func CheckLoginAllowed(u *models.User, now time.Time) error {
	if IsLocked(u, now) {
		return common.NewAccountLockedError(*u.LockedUntil, now)
	}
	if !u.Active {
		return common.ErrAccountDisabled
	}
	return nil
}

// ApplyFailure is the failed-login transition: count+1, and when the new
// count reaches max the lock is set to lockUntil in the same step.
func ApplyFailure(u models.User, max int, lockUntil time.Time) models.User {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= max {
		until := lockUntil
		u.LockedUntil = &until
	}
	return u
}

// ApplySuccess is the successful-login transition.
func ApplySuccess(u models.User, now time.Time) models.User {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	stamp := now
	u.LastLoginAt = &stamp
	return u
}

// Age returns full years between birth and today, calendar based: the
// birthday itself counts, the day before does not.
func Age(birth, today time.Time) int {
	by, bm, bd := birth.Date()
	ty, tm, td := today.Date()

	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}

// CheckAge rejects birth dates younger than minimumAge at today.
func CheckAge(birth, today time.Time, minimumAge int) error {
	if Age(birth, today) < minimumAge {
		return &common.AgeRestrictedError{MinimumAge: minimumAge}
	}
	return nil
}
