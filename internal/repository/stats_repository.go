package repository

import (
	"context"

	"ai-job-bot/internal/database"
)

type AggregateStats struct {
	TotalJobs         int64
	TotalApplications int64
	TotalFiltered     int64
	TotalSent         int64
}

type StatsRepository interface {
	Aggregate(ctx context.Context) (AggregateStats, error)
}

type PostgresStatsRepository struct {
	db database.DB
}

func NewPostgresStatsRepository(db database.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

func (r *PostgresStatsRepository) Aggregate(ctx context.Context) (AggregateStats, error) {
	var s AggregateStats
	row := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM postings),
			(SELECT COUNT(*) FROM applications),
			(SELECT COALESCE(SUM(jobs_filtered), 0) FROM runs),
			(SELECT COALESCE(SUM(applications_sent), 0) FROM runs)`,
	)
	if err := row.Scan(&s.TotalJobs, &s.TotalApplications, &s.TotalFiltered, &s.TotalSent); err != nil {
		return AggregateStats{}, err
	}
	return s, nil
}
