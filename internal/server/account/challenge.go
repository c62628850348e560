package account

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// ChallengeState names where a user is in the email verification flow.
type ChallengeState int

const (
	NoChallenge ChallengeState = iota
	Issued
	Verified
	Expired
	AttemptsExhausted
)

func (s ChallengeState) String() string {
	switch s {
	case NoChallenge:
		return "no_challenge"
	case Issued:
		return "issued"
	case Verified:
		return "verified"
	case Expired:
		return "expired"
	case AttemptsExhausted:
		return "attempts_exhausted"
	}
	return "unknown"
}

// State derives the challenge state. Exhausted attempts win over expiry.
func State(u *models.User, now time.Time, maxAttempts int) ChallengeState {
	switch {
	case u.EmailVerified:
		return Verified
	case u.VerificationCodeHash == nil:
		return NoChallenge
	case u.VerificationAttempts >= maxAttempts:
		return AttemptsExhausted
	case u.VerificationExpiry == nil || now.After(*u.VerificationExpiry):
		return Expired
	}
	return Issued
}

// IssueChallenge stores a fresh code digest and expiry and resets attempts.
func IssueChallenge(u models.User, codeHash string, expiry time.Time) models.User {
	hash, exp := codeHash, expiry
	u.VerificationCodeHash = &hash
	u.VerificationExpiry = &exp
	u.VerificationAttempts = 0
	return u
}

// CheckChallenge maps the state onto the error a verify attempt must return
// before the code is even compared. Nil means the code may be compared.
func CheckChallenge(u *models.User, now time.Time, maxAttempts int) error {
	switch State(u, now, maxAttempts) {
	case Verified:
		return common.ErrAlreadyVerified
	case NoChallenge:
		return common.ErrNoChallengeIssued
	case AttemptsExhausted:
		return common.ErrTooManyAttempts
	case Expired:
		return common.ErrChallengeExpired
	}
	return nil
}

// CodeMatches compares the digest of code with the stored one.
func CodeMatches(u *models.User, code string) bool {
	if u.VerificationCodeHash == nil {
		return false
	}
	return cryptox.DigestEqual(*u.VerificationCodeHash, cryptox.Digest(code))
}

// RecordAttempt counts one code comparison.
func RecordAttempt(u models.User) models.User {
	u.VerificationAttempts++
	return u
}

// AttemptsRemaining is what a client is told after a mismatch.
func AttemptsRemaining(attempts, maxAttempts int) int {
	if left := maxAttempts - attempts; left > 0 {
		return left
	}
	return 0
}

// MarkVerified completes the challenge.
func MarkVerified(u models.User) models.User {
	u.EmailVerified = true
	u.VerificationCodeHash = nil
	u.VerificationExpiry = nil
	u.VerificationAttempts = 0
	return u
}
