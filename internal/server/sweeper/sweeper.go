// Package sweeper deletes expired refresh tokens once a day at a fixed local
// time. Runs never overlap: within a process a mutex guards the sweep, and
// across replicas an optional Redis lease does.
package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// ErrInProgress is returned by RunOnce when a sweep is already running.
var ErrInProgress = errors.New("sweep already in progress")

// DefaultLeaseTTL bounds how long a crashed holder can block other replicas.
const DefaultLeaseTTL = 10 * time.Minute

// TokenSweeper removes expired tokens and reports how many.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Scheduler runs a TokenSweeper daily at Hour:Minute in Location.
type Scheduler struct {
	tokens   TokenSweeper
	lease    Lease
	leaseTTL time.Duration
	hour     int
	minute   int
	loc      *time.Location
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
	mu       sync.Mutex
	log      logging.Logger
}

// New builds a Scheduler. lease may be nil for single-replica deployments.
func New(tokens TokenSweeper, lease Lease, hour, minute int, loc *time.Location, log logging.Logger) *Scheduler {
	return &Scheduler{
		tokens:   tokens,
		lease:    lease,
		leaseTTL: DefaultLeaseTTL,
		hour:     hour,
		minute:   minute,
		loc:      loc,
		now:      time.Now,
		after:    time.After,
		log:      log.With("module", "sweeper"),
	}
}

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// RunOnce sweeps now. It returns ErrInProgress if this process is already
// sweeping and (0, nil) if another replica holds the lease.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	if !s.mu.TryLock() {
		return 0, ErrInProgress
	}
	defer s.mu.Unlock()

	if s.lease != nil {
		release, ok, err := s.lease.Acquire(ctx, s.leaseTTL)
		if err != nil {
			return 0, err
		}
		if !ok {
			s.log.Info(ctx, "sweep skipped, lease held elsewhere")
			return 0, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn(ctx, "lease release failed", "error", err)
			}
		}()
	}

	return s.tokens.SweepExpired(ctx)
}

// Run blocks, sweeping once a day, until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := NextRun(s.now(), s.hour, s.minute, s.loc)
		s.log.Debug(ctx, "next sweep scheduled", "at", next)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(next.Sub(s.now())):
		}

		n, err := s.RunOnce(ctx)
		if err != nil {
			s.log.Error(ctx, "sweep failed", "error", err)
			continue
		}
		s.log.Info(ctx, "expired refresh tokens swept", "deleted", n)
	}
}
