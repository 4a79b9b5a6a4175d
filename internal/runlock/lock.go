// Package runlock guards the pipeline's single-run invariant with a lock
// record (owner token + expiry) persisted next to the run ledger. Losing a
// race returns ErrAlreadyRunning immediately; there is no queue.
package runlock

import (
	"context"
	"errors"
	"log"
	"time"

	"ai-job-bot/internal/repository"

	"github.com/google/uuid"
)

var ErrAlreadyRunning = errors.New("a run is already in progress")

type StaleRunSweeper interface {
	FailStaleRunning(ctx context.Context, cutoff time.Time) (int64, error)
}

type Guard struct {
	locks  repository.LockRepository
	runs   StaleRunSweeper
	ttl    time.Duration
	logger *log.Logger
}

func NewGuard(locks repository.LockRepository, runs StaleRunSweeper, ttl time.Duration, logger *log.Logger) *Guard {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{locks: locks, runs: runs, ttl: ttl, logger: logger}
}

// Acquire claims the run lock or fails fast with ErrAlreadyRunning. When an
// expired holder is displaced the stale run it abandoned is swept to failed,
// since its process evidently died without finalizing.
func (g *Guard) Acquire(ctx context.Context) (uuid.UUID, error) {
	owner := uuid.New()

	acquired, wasExpired, err := g.locks.TryAcquire(ctx, owner, g.ttl)
	if err != nil {
		return uuid.Nil, err
	}
	if !acquired {
		return uuid.Nil, ErrAlreadyRunning
	}

	if wasExpired && g.runs != nil {
		cutoff := time.Now().UTC().Add(-g.ttl)
		swept, err := g.runs.FailStaleRunning(ctx, cutoff)
		if err != nil {
			g.logger.Printf("runlock stale sweep error | err=%v", err)
		} else if swept > 0 {
			g.logger.Printf("runlock stale sweep | swept=%d", swept)
		}
	}

	return owner, nil
}

// Release is safe to call exactly once per acquired owner; the background
// context keeps the release working even when the run's context is gone.
func (g *Guard) Release(owner uuid.UUID) {
	if owner == uuid.Nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.locks.Release(ctx, owner); err != nil {
		g.logger.Printf("runlock release error | owner=%s err=%v", owner, err)
	}
}

// TTL exposes the configured maximum run duration.
func (g *Guard) TTL() time.Duration {
	return g.ttl
}
