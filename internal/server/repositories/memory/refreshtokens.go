package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
)

// RefreshTokens implements refreshtokens.Repository, keyed by user ID.
type RefreshTokens struct {
	s *Store
}

var _ refreshtokens.Repository = (*RefreshTokens)(nil)

func (r *RefreshTokens) FindByUser(_ context.Context, userID string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.tokens[userID]; ok {
		return cloneToken(t), nil
	}
	return nil, common.ErrorNotFound
}

func (r *RefreshTokens) FindByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tokens {
		if t.TokenHash == tokenHash {
			return cloneToken(t), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *RefreshTokens) Upsert(_ context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if t, ok := r.s.tokens[userID]; ok {
		t.TokenHash = tokenHash
		t.ExpiresAt = expiresAt
		t.UpdatedAt = now
		return nil
	}

	r.s.tokens[userID] = &models.RefreshToken{
		ID:        newID(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *RefreshTokens) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.tokens, userID)
	return nil
}

func (r *RefreshTokens) DeleteByHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for userID, t := range r.s.tokens {
		if t.TokenHash == tokenHash {
			delete(r.s.tokens, userID)
		}
	}
	return nil
}

func (r *RefreshTokens) DeleteExpiredBefore(_ context.Context, ts time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for userID, t := range r.s.tokens {
		if t.ExpiresAt.Before(ts) {
			delete(r.s.tokens, userID)
			n++
		}
	}
	return n, nil
}
