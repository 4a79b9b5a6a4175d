// Package dedup decides whether a posting identity has been processed by
// any prior run. The persisted index lives in Postgres; Redis sits in front
// as a fast path and may be absent.
package dedup

import (
	"context"
	"log"

	"ai-job-bot/internal/domain/posting"
	"ai-job-bot/internal/repository"

	"github.com/google/uuid"
)

type SeenCache interface {
	HasSeen(ctx context.Context, key string) bool
	MarkSeen(ctx context.Context, key string)
}

type Deduplicator struct {
	repo   repository.DedupRepository
	cache  SeenCache
	logger *log.Logger
}

func New(repo repository.DedupRepository, cache SeenCache, logger *log.Logger) *Deduplicator {
	if logger == nil {
		logger = log.Default()
	}
	return &Deduplicator{repo: repo, cache: cache, logger: logger}
}

// IsNew reports whether the identity has never been seen by any run.
func (d *Deduplicator) IsNew(ctx context.Context, ident posting.Identity) (bool, error) {
	if !ident.Valid() {
		return false, nil
	}
	if d.cache != nil && d.cache.HasSeen(ctx, ident.Key()) {
		return false, nil
	}
	seen, err := d.repo.IsSeen(ctx, ident)
	if err != nil {
		return false, err
	}
	if seen && d.cache != nil {
		// Backfill the fast path so the next run skips the DB round trip.
		d.cache.MarkSeen(ctx, ident.Key())
	}
	return !seen, nil
}

// MarkSeen records the identity in the persisted index. Idempotent:
// re-marking is a no-op, never an error.
func (d *Deduplicator) MarkSeen(ctx context.Context, ident posting.Identity, runID uuid.UUID) error {
	if !ident.Valid() {
		return nil
	}
	if err := d.repo.MarkSeen(ctx, ident, runID); err != nil {
		return err
	}
	if d.cache != nil {
		d.cache.MarkSeen(ctx, ident.Key())
	}
	return nil
}
