package repository

import (
	"context"
	"time"

	"ai-job-bot/internal/database"

	"github.com/google/uuid"
)

// LockRepository persists the single-row run lock: an owner token plus an
// expiry. The guarantee survives process restarts because acquisition is a
// compare-and-set against the stored row, not in-process state.
type LockRepository interface {
	// TryAcquire claims the lock for owner until now+ttl. It succeeds only
	// when the lock is free or its expiry has passed; wasExpired reports
	// whether an expired holder was displaced.
	TryAcquire(ctx context.Context, owner uuid.UUID, ttl time.Duration) (acquired bool, wasExpired bool, err error)
	// Release frees the lock if owner still holds it; releasing a lock
	// held by someone else (or nobody) is a no-op.
	Release(ctx context.Context, owner uuid.UUID) error
}

type PostgresLockRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresLockRepository(db database.DB) *PostgresLockRepository {
	return &PostgresLockRepository{db: db, now: time.Now}
}

func (r *PostgresLockRepository) TryAcquire(ctx context.Context, owner uuid.UUID, ttl time.Duration) (bool, bool, error) {
	now := r.now().UTC()

	var holder *uuid.UUID
	var expiresAt *time.Time
	row := r.db.QueryRow(ctx, `SELECT owner_token, expires_at FROM run_lock WHERE id = 1`)
	if err := row.Scan(&holder, &expiresAt); err != nil {
		return false, false, err
	}
	holderExpired := holder != nil && expiresAt != nil && expiresAt.Before(now)

	// The WHERE clause is the atomic compare-and-set; the read above is
	// only advisory (it decides whether stale runs need sweeping).
	n, err := r.db.Exec(ctx,
		`UPDATE run_lock
		 SET owner_token = $1, expires_at = $2
		 WHERE id = 1
		   AND (owner_token IS NULL OR expires_at IS NULL OR expires_at < $3)`,
		owner, now.Add(ttl), now,
	)
	if err != nil {
		return false, false, err
	}
	if n == 0 {
		return false, false, nil
	}
	return true, holderExpired, nil
}

func (r *PostgresLockRepository) Release(ctx context.Context, owner uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE run_lock SET owner_token = NULL, expires_at = NULL
		 WHERE id = 1 AND owner_token = $1`,
		owner,
	)
	return err
}
