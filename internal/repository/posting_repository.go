package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-job-bot/internal/database"
	"ai-job-bot/internal/domain/posting"

	"github.com/google/uuid"
)

var ErrPostingNotFound = errors.New("posting not found")

type PostingRepository interface {
	// Create inserts a posting once; re-inserting the same identity is a
	// no-op and reports inserted=false.
	Create(ctx context.Context, p posting.Posting) (inserted bool, err error)
	SetScore(ctx context.Context, id uuid.UUID, score int, rationale string) error
	GetByIdentity(ctx context.Context, ident posting.Identity) (posting.Posting, error)
	ListRecent(ctx context.Context, limit, offset int) ([]posting.Posting, error)
}

type PostgresPostingRepository struct {
	db database.DB
}

func NewPostgresPostingRepository(db database.DB) *PostgresPostingRepository {
	return &PostgresPostingRepository{db: db}
}

func (r *PostgresPostingRepository) Create(ctx context.Context, p posting.Posting) (bool, error) {
	if !p.Identity().Valid() {
		return false, errors.New("posting identity incomplete")
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	discovered := p.DiscoveredAt
	if discovered.IsZero() {
		discovered = time.Now().UTC()
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	n, err := r.db.Exec(ctx,
		`INSERT INTO postings (
			id, source, external_id, title, company, location, salary, tags,
			description, url, discovered_at, run_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (source, external_id) DO NOTHING`,
		id,
		strings.TrimSpace(p.Source),
		strings.TrimSpace(p.ExternalID),
		p.Title,
		p.Company,
		p.Location,
		p.Salary,
		tags,
		p.Description,
		p.URL,
		discovered,
		p.RunID,
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetScore writes a score exactly once; a posting that already carries a
// score keeps it.
func (r *PostgresPostingRepository) SetScore(ctx context.Context, id uuid.UUID, score int, rationale string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE postings SET score = $2, score_rationale = $3 WHERE id = $1 AND score IS NULL`,
		id, score, rationale,
	)
	return err
}

func (r *PostgresPostingRepository) GetByIdentity(ctx context.Context, ident posting.Identity) (posting.Posting, error) {
	row := r.db.QueryRow(ctx,
		selectPostingColumns+` FROM postings WHERE source = $1 AND external_id = $2`,
		ident.Source, ident.ExternalID,
	)
	p, err := scanPosting(row)
	if err != nil {
		return posting.Posting{}, ErrPostingNotFound
	}
	return p, nil
}

func (r *PostgresPostingRepository) ListRecent(ctx context.Context, limit, offset int) ([]posting.Posting, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		selectPostingColumns+` FROM postings ORDER BY discovered_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]posting.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const selectPostingColumns = `SELECT id, source, external_id, title, company, location, salary, tags,
	description, url, discovered_at, score, score_rationale, run_id, created_at`

func scanPosting(row database.Row) (posting.Posting, error) {
	var p posting.Posting
	err := row.Scan(
		&p.ID, &p.Source, &p.ExternalID, &p.Title, &p.Company, &p.Location,
		&p.Salary, &p.Tags, &p.Description, &p.URL, &p.DiscoveredAt,
		&p.Score, &p.ScoreRationale, &p.RunID, &p.CreatedAt,
	)
	return p, err
}
