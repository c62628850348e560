package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// LockoutCounter records login outcomes.
//
// Each call opens its own transaction on the base pool and commits it before
// returning, so a failure is persisted even when the surrounding login fails
// or its context is cancelled.
type LockoutCounter struct {
	db           dbx.Database
	repomanager  repomanager.RepositoryManager
	maxAttempts  int
	lockDuration time.Duration
	now          Clock
	log          logging.Logger
}

func NewLockoutCounter(db dbx.Database, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *LockoutCounter {
	return &LockoutCounter{
		db:           db,
		repomanager:  m,
		maxAttempts:  cfg.MaxLoginAttempts,
		lockDuration: cfg.LockDuration,
		now:          time.Now,
		log:          log.With("module", "lockout"),
	}
}

// WithClock replaces the time source, for tests.
func (c *LockoutCounter) WithClock(now Clock) *LockoutCounter {
	c.now = now
	return c
}

// RecordFailure counts a failed login and locks the account when the count
// reaches the maximum. An unknown user is logged, not reported.
func (c *LockoutCounter) RecordFailure(ctx context.Context, userID string) error {
	ctx = context.WithoutCancel(ctx)
	lockUntil := c.now().Add(c.lockDuration)

	var rows int64
	err := c.db.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := c.repomanager.Users(tx).IncrementFailureAndMaybeLock(ctx, userID, c.maxAttempts, lockUntil)
		rows = n
		return err
	})
	if err != nil {
		return common.Infra("record login failure", err)
	}

	if rows == 0 {
		c.log.Warn(ctx, "login failure for unknown user", "user_id", userID)
		return nil
	}
	c.log.Debug(ctx, "login failure recorded", "user_id", userID)
	return nil
}

// RecordSuccess clears the counter and any lock and stamps the login time.
func (c *LockoutCounter) RecordSuccess(ctx context.Context, userID string) error {
	ctx = context.WithoutCancel(ctx)
	now := c.now()

	var rows int64
	err := c.db.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := c.repomanager.Users(tx).ResetFailureAndStampLogin(ctx, userID, now)
		rows = n
		return err
	})
	if err != nil {
		return common.Infra("record login success", err)
	}

	if rows == 0 {
		c.log.Warn(ctx, "login success for unknown user", "user_id", userID)
	}
	return nil
}
