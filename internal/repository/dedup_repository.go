package repository

import (
	"context"
	"errors"

	"ai-job-bot/internal/database"
	"ai-job-bot/internal/domain/posting"

	"github.com/google/uuid"
)

// DedupRepository is the persisted dedup index: the set of posting
// identities seen across all historical runs. Append-only.
type DedupRepository interface {
	IsSeen(ctx context.Context, ident posting.Identity) (bool, error)
	MarkSeen(ctx context.Context, ident posting.Identity, runID uuid.UUID) error
}

type PostgresDedupRepository struct {
	db database.DB
}

func NewPostgresDedupRepository(db database.DB) *PostgresDedupRepository {
	return &PostgresDedupRepository{db: db}
}

func (r *PostgresDedupRepository) IsSeen(ctx context.Context, ident posting.Identity) (bool, error) {
	if !ident.Valid() {
		return false, errors.New("dedup identity incomplete")
	}
	var seen bool
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM seen_postings WHERE source = $1 AND external_id = $2)`,
		ident.Source, ident.ExternalID,
	)
	if err := row.Scan(&seen); err != nil {
		return false, err
	}
	return seen, nil
}

// MarkSeen is idempotent: re-marking a seen identity is a no-op.
func (r *PostgresDedupRepository) MarkSeen(ctx context.Context, ident posting.Identity, runID uuid.UUID) error {
	if !ident.Valid() {
		return errors.New("dedup identity incomplete")
	}
	var firstRun any
	if runID != uuid.Nil {
		firstRun = runID
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO seen_postings (source, external_id, first_run_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (source, external_id) DO NOTHING`,
		ident.Source, ident.ExternalID, firstRun,
	)
	return err
}
