package usecase

import (
	"context"
	"errors"

	"ai-job-bot/internal/domain/run"
	"ai-job-bot/internal/repository"
	"ai-job-bot/internal/runlock"

	"github.com/google/uuid"
)

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrRunInProgress = errors.New("a run is already in progress")
)

// RunStarter is what the trigger needs from the orchestrator.
type RunStarter interface {
	StartRun(ctx context.Context, trigger string) (run.Run, error)
}

type RunUsecase interface {
	Trigger(ctx context.Context, triggerSource string) (run.Run, error)
	Get(ctx context.Context, id uuid.UUID) (run.Run, error)
	List(ctx context.Context, limit int) ([]run.Run, error)
}

type Runs struct {
	starter RunStarter
	repo    repository.RunRepository
}

func NewRunUsecase(starter RunStarter, repo repository.RunRepository) *Runs {
	return &Runs{starter: starter, repo: repo}
}

// Trigger starts a pipeline run in the background. A concurrent run maps to
// ErrRunInProgress so the delivery layer can answer 409.
func (u *Runs) Trigger(ctx context.Context, triggerSource string) (run.Run, error) {
	if triggerSource == "" {
		triggerSource = "api"
	}
	rn, err := u.starter.StartRun(ctx, triggerSource)
	if err != nil {
		if errors.Is(err, runlock.ErrAlreadyRunning) {
			return run.Run{}, ErrRunInProgress
		}
		return run.Run{}, err
	}
	return rn, nil
}

func (u *Runs) Get(ctx context.Context, id uuid.UUID) (run.Run, error) {
	rn, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return run.Run{}, ErrRunNotFound
		}
		return run.Run{}, err
	}
	return rn, nil
}

func (u *Runs) List(ctx context.Context, limit int) ([]run.Run, error) {
	return u.repo.ListRecent(ctx, limit)
}
