package usecase

import (
	"context"
	"errors"
	"time"

	"ai-job-bot/internal/domain/application"
	"ai-job-bot/internal/repository"

	"github.com/google/uuid"
)

var ErrApplicationNotFound = errors.New("application not found")

type ApplicationUsecase interface {
	List(ctx context.Context, limit, offset int) ([]application.Application, error)
	MarkResponse(ctx context.Context, id uuid.UUID) error
}

type Applications struct {
	repo repository.ApplicationRepository
}

func NewApplicationUsecase(repo repository.ApplicationRepository) *Applications {
	return &Applications{repo: repo}
}

func (u *Applications) List(ctx context.Context, limit, offset int) ([]application.Application, error) {
	return u.repo.ListRecent(ctx, limit, offset)
}

// MarkResponse flags that the company answered an application. Manual
// bookkeeping; the pipeline never calls this.
func (u *Applications) MarkResponse(ctx context.Context, id uuid.UUID) error {
	err := u.repo.MarkResponseReceived(ctx, id, time.Now().UTC())
	if errors.Is(err, repository.ErrApplicationNotFound) {
		return ErrApplicationNotFound
	}
	return err
}
