package models

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender accepts the three known values case-insensitively.
func ParseGender(s string) (Gender, bool) {
	switch g := Gender(strings.ToLower(s)); g {
	case GenderMale, GenderFemale, GenderOther:
		return g, true
	}
	return "", false
}

// User is one account row. Nullable columns are pointers.
//
// VerificationCodeHash and VerificationExpiry are always both set or both nil.
type User struct {
	ID           string
	Email        string
	Nickname     string
	PasswordHash string
	BirthDate    time.Time

	ProfileImageURL *string
	Gender          *Gender
	Bio             *string

	EmailVerified bool
	Active        bool

	VerificationCodeHash *string
	VerificationExpiry   *time.Time
	VerificationAttempts int

	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
