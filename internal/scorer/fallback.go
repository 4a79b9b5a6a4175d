package scorer

import (
	"context"
	"fmt"
	"strings"

	"ai-job-bot/internal/domain/posting"
)

// Fallback is a deterministic keyword heuristic used when no API key is
// configured. Title matches weigh more than description or tag matches.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) Score(ctx context.Context, p posting.Posting, profile Profile) (int, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrScoring, err)
	}

	title := strings.ToLower(p.Title)
	body := strings.ToLower(p.Description + " " + strings.Join(p.Tags, " "))

	score := 2
	var matched []string
	for _, skill := range profile.Skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		switch {
		case strings.Contains(title, skill):
			score += 3
			matched = append(matched, skill)
		case strings.Contains(body, skill):
			score++
			matched = append(matched, skill)
		}
	}

	if loc := strings.ToLower(strings.TrimSpace(profile.Location)); loc != "" &&
		strings.Contains(strings.ToLower(p.Location), loc) {
		score++
	}

	score = clampScore(score)
	reason := "no skill keywords matched"
	if len(matched) > 0 {
		reason = "matched keywords: " + strings.Join(matched, ", ")
	}
	return score, reason, nil
}
