package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// RefreshTokenStore keeps at most one live refresh token per user, stored as
// a SHA-256 digest.
type RefreshTokenStore struct {
	db          dbx.Database
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	now         Clock
	log         logging.Logger
}

func NewRefreshTokenStore(db dbx.Database, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *RefreshTokenStore {
	return &RefreshTokenStore{
		db:          db,
		repomanager: m,
		ttl:         cfg.RefreshTokenValidityDuration,
		now:         time.Now,
		log:         log.With("module", "refreshtokens"),
	}
}

// WithClock replaces the time source, for tests.
func (s *RefreshTokenStore) WithClock(now Clock) *RefreshTokenStore {
	s.now = now
	return s
}

// Issue stores raw as the user's refresh token, replacing any previous one.
func (s *RefreshTokenStore) Issue(ctx context.Context, userID, raw string) error {
	return s.issueWith(ctx, s.db.Conn(), userID, raw)
}

// issueWith is Issue on a caller-provided handle, so the write can join the
// caller's transaction.
func (s *RefreshTokenStore) issueWith(ctx context.Context, tx dbx.DBTX, userID, raw string) error {
	expiresAt := s.now().Add(s.ttl)
	if err := s.repomanager.RefreshTokens(tx).Upsert(ctx, userID, cryptox.Digest(raw), expiresAt); err != nil {
		return common.Infra("store refresh token", err)
	}
	return nil
}

// Redeem returns the owner of raw. An expired token is deleted and reported
// as ErrTokenExpired; presenting it again yields ErrInvalidToken.
func (s *RefreshTokenStore) Redeem(ctx context.Context, raw string) (string, error) {
	repo := s.repomanager.RefreshTokens(s.db.Conn())
	hash := cryptox.Digest(raw)

	rec, err := repo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", common.Infra("find refresh token", err)
	}

	if rec.ExpiresAt.Before(s.now()) {
		if err := repo.DeleteByHash(ctx, hash); err != nil {
			return "", common.Infra("delete expired refresh token", err)
		}
		s.log.Info(ctx, "expired refresh token removed", "user_id", rec.UserID)
		return "", common.ErrTokenExpired
	}

	return rec.UserID, nil
}

// Revoke removes the user's refresh token, if any.
func (s *RefreshTokenStore) Revoke(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.db.Conn()).DeleteByUser(ctx, userID); err != nil {
		return common.Infra("revoke refresh token", err)
	}
	return nil
}

// SweepExpired deletes every token that expired before now.
func (s *RefreshTokenStore) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db.Conn()).DeleteExpiredBefore(ctx, s.now())
	if err != nil {
		return 0, common.Infra("sweep refresh tokens", err)
	}
	return n, nil
}
