package usecase

import (
	"context"

	"ai-job-bot/internal/repository"
)

// Stats is the aggregate view served by the stats endpoint. SuccessRate is
// the share of filtered postings that ended in a sent application.
type Stats struct {
	TotalJobs         int64   `json:"total_jobs"`
	TotalApplications int64   `json:"total_applications"`
	TotalFiltered     int64   `json:"total_filtered"`
	TotalSent         int64   `json:"total_sent"`
	SuccessRate       float64 `json:"success_rate"`
}

type StatsUsecase interface {
	Aggregate(ctx context.Context) (Stats, error)
}

type StatsService struct {
	repo repository.StatsRepository
}

func NewStatsUsecase(repo repository.StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

func (u *StatsService) Aggregate(ctx context.Context) (Stats, error) {
	agg, err := u.repo.Aggregate(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalJobs:         agg.TotalJobs,
		TotalApplications: agg.TotalApplications,
		TotalFiltered:     agg.TotalFiltered,
		TotalSent:         agg.TotalSent,
		SuccessRate:       successRate(agg.TotalSent, agg.TotalFiltered),
	}, nil
}

// successRate guards the zero denominator: no filtered postings means no
// rate, not a division error.
func successRate(sent, filtered int64) float64 {
	if filtered <= 0 {
		return 0
	}
	return float64(sent) / float64(filtered)
}
