package dto

import (
	"time"

	"ai-job-bot/internal/domain/posting"
)

type PostingResponse struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	ExternalID     string    `json:"external_id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	Salary         *string   `json:"salary,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	URL            string    `json:"url"`
	DiscoveredAt   time.Time `json:"discovered_at"`
	Score          *int      `json:"score,omitempty"`
	ScoreRationale *string   `json:"score_rationale,omitempty"`
}

func NewPostingResponse(p posting.Posting) PostingResponse {
	return PostingResponse{
		ID:             p.ID.String(),
		Source:         p.Source,
		ExternalID:     p.ExternalID,
		Title:          p.Title,
		Company:        p.Company,
		Location:       p.Location,
		Salary:         p.Salary,
		Tags:           p.Tags,
		URL:            p.URL,
		DiscoveredAt:   p.DiscoveredAt,
		Score:          p.Score,
		ScoreRationale: p.ScoreRationale,
	}
}

func NewPostingListResponse(postings []posting.Posting) []PostingResponse {
	out := make([]PostingResponse, 0, len(postings))
	for _, p := range postings {
		out = append(out, NewPostingResponse(p))
	}
	return out
}
