package models

import "time"

// RefreshToken is the single live refresh credential of a user. Only the
// SHA-256 digest of the token is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair is handed to the transport layer after a successful login,
// email verification or refresh. It is never persisted.
type TokenPair struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}
