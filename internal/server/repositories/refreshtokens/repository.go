// Package refreshtokens declares the server-side repository contract for
// refresh token records. Only SHA-256 digests of tokens are stored; each user
// has at most one live record.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines storage operations for refresh token records.
type Repository interface {
	// FindByUser returns the record of userID or common.ErrorNotFound.
	FindByUser(ctx context.Context, userID string) (*models.RefreshToken, error)

	// FindByHash returns the record whose digest equals tokenHash or
	// common.ErrorNotFound.
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Upsert creates the record of userID or overwrites its digest and expiry.
	// Concurrent upserts for one user are race-free; the last writer wins.
	Upsert(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error

	// DeleteByUser removes the record of userID. A missing record is not an error.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteByHash removes the record with tokenHash. A missing record is not an error.
	DeleteByHash(ctx context.Context, tokenHash string) error

	// DeleteExpiredBefore removes records that expired before ts and returns
	// how many were removed.
	DeleteExpiredBefore(ctx context.Context, ts time.Time) (int64, error)
}
