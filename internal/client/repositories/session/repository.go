// Package session persists the authctl login session (user ID, email and the
// token pair) as key/value rows in the local SQLite database.
package session

import "context"

// Keys stored by the client.
const (
	KeyUserID       = "user_id"
	KeyEmail        = "email"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

type Repository interface {
	// Get returns "" and no error for a missing key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
