package dto

import (
	"time"

	"ai-job-bot/internal/domain/application"
)

type ApplicationResponse struct {
	ID               string     `json:"id"`
	PostingID        string     `json:"posting_id"`
	RunID            string     `json:"run_id"`
	Status           string     `json:"status"`
	Message          string     `json:"message,omitempty"`
	Error            string     `json:"error,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ResponseReceived bool       `json:"response_received"`
	ResponseDate     *time.Time `json:"response_date,omitempty"`
}

func NewApplicationResponse(a application.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:               a.ID.String(),
		PostingID:        a.PostingID.String(),
		RunID:            a.RunID.String(),
		Status:           string(a.Status),
		Message:          a.Message,
		Error:            a.Error,
		SubmittedAt:      a.SubmittedAt,
		ResponseReceived: a.ResponseReceived,
		ResponseDate:     a.ResponseDate,
	}
}

func NewApplicationListResponse(apps []application.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, NewApplicationResponse(a))
	}
	return out
}
