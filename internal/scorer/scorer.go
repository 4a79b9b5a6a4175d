// Package scorer assigns each posting a 1..10 relevance score against the
// applicant's profile. Scoring runs through Claude when an API key is
// configured and falls back to a keyword heuristic otherwise, so the
// pipeline works end to end without external credentials.
package scorer

import (
	"context"
	"errors"
	"log"

	"ai-job-bot/internal/config"
	"ai-job-bot/internal/domain/posting"
)

// ErrScoring classifies scorer failures: API errors, timeouts and
// unparseable model output all wrap it.
var ErrScoring = errors.New("scoring error")

// Profile is the applicant context the scorer judges postings against.
type Profile struct {
	Name     string
	Location string
	Skills   []string
}

type Scorer interface {
	Score(ctx context.Context, p posting.Posting, profile Profile) (int, string, error)
}

// New picks the Claude scorer when an API key is present, the keyword
// heuristic otherwise.
func New(cfg config.ScorerConfig, logger *log.Logger) Scorer {
	if cfg.AnthropicAPIKey != "" {
		return NewClaude(cfg, logger)
	}
	if logger != nil {
		logger.Printf("scorer=fallback reason=no_api_key")
	}
	return NewFallback()
}

func ProfileFromConfig(cfg config.Config) Profile {
	return Profile{
		Name:     cfg.Applicant.Name,
		Location: cfg.Applicant.Location,
		Skills:   cfg.Search.Keywords,
	}
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
