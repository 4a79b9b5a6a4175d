package repository

import (
	"context"
	"errors"
	"time"

	"ai-job-bot/internal/database"
	"ai-job-bot/internal/domain/run"

	"github.com/google/uuid"
)

var ErrRunNotFound = errors.New("run not found")

type RunRepository interface {
	CreateRunning(ctx context.Context, r run.Run) error
	UpdateCounters(ctx context.Context, id uuid.UUID, found, filtered, sent int) error
	AppendError(ctx context.Context, rec run.ErrorRecord) error
	// Finalize moves a run to a terminal state; a run already terminal is
	// left untouched.
	Finalize(ctx context.Context, id uuid.UUID, status run.Status, endTime time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (run.Run, error)
	ListRecent(ctx context.Context, limit int) ([]run.Run, error)
	// FailStaleRunning marks runs still "running" whose start predates the
	// cutoff as failed, recording a lock-expiry error for each. Returns how
	// many runs were swept.
	FailStaleRunning(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostgresRunRepository struct {
	db database.DB
}

func NewPostgresRunRepository(db database.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) CreateRunning(ctx context.Context, rn run.Run) error {
	id := rn.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	start := rn.StartTime
	if start.IsZero() {
		start = time.Now().UTC()
	}
	trigger := rn.TriggerSource
	if trigger == "" {
		trigger = "manual"
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO runs (id, status, trigger_source, start_time) VALUES ($1,$2,$3,$4)`,
		id, string(run.StatusRunning), trigger, start,
	)
	return err
}

func (r *PostgresRunRepository) UpdateCounters(ctx context.Context, id uuid.UUID, found, filtered, sent int) error {
	n, err := r.db.Exec(ctx,
		`UPDATE runs SET jobs_found = $2, jobs_filtered = $3, applications_sent = $4 WHERE id = $1`,
		id, found, filtered, sent,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *PostgresRunRepository) AppendError(ctx context.Context, rec run.ErrorRecord) error {
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	at := rec.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO run_errors (id, run_id, stage, item_key, message, occurred_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, rec.RunID, string(rec.Stage), rec.ItemKey, rec.Message, at,
	)
	return err
}

func (r *PostgresRunRepository) Finalize(ctx context.Context, id uuid.UUID, status run.Status, endTime time.Time) error {
	if !status.Terminal() {
		return errors.New("finalize requires a terminal status")
	}
	n, err := r.db.Exec(ctx,
		`UPDATE runs SET status = $2, end_time = $3
		 WHERE id = $1 AND status = $4`,
		id, string(status), endTime.UTC(), string(run.StatusRunning),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (run.Run, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, status, trigger_source, start_time, end_time,
			jobs_found, jobs_filtered, applications_sent, created_at
		 FROM runs WHERE id = $1`,
		id,
	)
	rn, err := scanRun(row)
	if err != nil {
		return run.Run{}, ErrRunNotFound
	}

	errsRows, err := r.db.Query(ctx,
		`SELECT id, run_id, stage, item_key, message, occurred_at
		 FROM run_errors WHERE run_id = $1 ORDER BY occurred_at`,
		id,
	)
	if err != nil {
		return run.Run{}, err
	}
	defer errsRows.Close()

	for errsRows.Next() {
		var rec run.ErrorRecord
		var stage string
		if err := errsRows.Scan(&rec.ID, &rec.RunID, &stage, &rec.ItemKey, &rec.Message, &rec.OccurredAt); err != nil {
			return run.Run{}, err
		}
		rec.Stage = run.Stage(stage)
		rn.Errors = append(rn.Errors, rec)
	}
	if err := errsRows.Err(); err != nil {
		return run.Run{}, err
	}
	return rn, nil
}

func (r *PostgresRunRepository) ListRecent(ctx context.Context, limit int) ([]run.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, status, trigger_source, start_time, end_time,
			jobs_found, jobs_filtered, applications_sent, created_at
		 FROM runs ORDER BY start_time DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]run.Run, 0)
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRunRepository) FailStaleRunning(ctx context.Context, cutoff time.Time) (int64, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE runs SET status = $1, end_time = now()
		 WHERE status = $2 AND start_time < $3
		 RETURNING id`,
		string(run.StatusFailed), string(run.StatusRunning), cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var swept int64
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return swept, err
		}
		swept++
		_ = r.AppendError(ctx, run.ErrorRecord{
			RunID:   id,
			Stage:   run.StageFinalize,
			Message: "run lock expired before the pipeline finished",
		})
	}
	return swept, rows.Err()
}

func scanRun(row database.Row) (run.Run, error) {
	var rn run.Run
	var status string
	err := row.Scan(
		&rn.ID, &status, &rn.TriggerSource, &rn.StartTime, &rn.EndTime,
		&rn.JobsFound, &rn.JobsFiltered, &rn.ApplicationsSent, &rn.CreatedAt,
	)
	if err != nil {
		return run.Run{}, err
	}
	rn.Status = run.Status(status)
	return rn, nil
}
