package repository

import (
	"context"
	"errors"
	"time"

	"ai-job-bot/internal/database"
	"ai-job-bot/internal/domain/application"

	"github.com/google/uuid"
)

var ErrApplicationNotFound = errors.New("application not found")

type ApplicationRepository interface {
	Create(ctx context.Context, a application.Application) error
	ListRecent(ctx context.Context, limit, offset int) ([]application.Application, error)
	MarkResponseReceived(ctx context.Context, id uuid.UUID, at time.Time) error
}

type PostgresApplicationRepository struct {
	db database.DB
}

func NewPostgresApplicationRepository(db database.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

func (r *PostgresApplicationRepository) Create(ctx context.Context, a application.Application) error {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := a.Status
	if status == "" {
		status = application.StatusPending
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO applications (
			id, posting_id, run_id, status, message, error, submitted_at, response_received
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING`,
		id, a.PostingID, a.RunID, string(status), a.Message, a.Error, a.SubmittedAt, a.ResponseReceived,
	)
	return err
}

func (r *PostgresApplicationRepository) ListRecent(ctx context.Context, limit, offset int) ([]application.Application, error) {
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
		`SELECT id, posting_id, run_id, status, message, error, submitted_at,
			response_received, response_date, created_at
		 FROM applications
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Application, 0)
	for rows.Next() {
		var a application.Application
		var status string
		if err := rows.Scan(
			&a.ID, &a.PostingID, &a.RunID, &status, &a.Message, &a.Error,
			&a.SubmittedAt, &a.ResponseReceived, &a.ResponseDate, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Status = application.Status(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresApplicationRepository) MarkResponseReceived(ctx context.Context, id uuid.UUID, at time.Time) error {
	n, err := r.db.Exec(ctx,
		`UPDATE applications SET response_received = true, response_date = $2 WHERE id = $1`,
		id, at.UTC(),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrApplicationNotFound
	}
	return nil
}
