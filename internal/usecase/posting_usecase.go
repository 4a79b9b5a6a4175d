package usecase

import (
	"context"

	"ai-job-bot/internal/domain/posting"
	"ai-job-bot/internal/repository"
)

type PostingUsecase interface {
	List(ctx context.Context, limit, offset int) ([]posting.Posting, error)
}

type Postings struct {
	repo repository.PostingRepository
}

func NewPostingUsecase(repo repository.PostingRepository) *Postings {
	return &Postings{repo: repo}
}

func (u *Postings) List(ctx context.Context, limit, offset int) ([]posting.Posting, error) {
	return u.repo.ListRecent(ctx, limit, offset)
}
