package dto

import (
	"time"

	"ai-job-bot/internal/domain/run"
)

type RunResponse struct {
	ID               string             `json:"id"`
	Status           string             `json:"status"`
	TriggerSource    string             `json:"trigger_source"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          *time.Time         `json:"end_time,omitempty"`
	JobsFound        int                `json:"jobs_found"`
	JobsFiltered     int                `json:"jobs_filtered"`
	ApplicationsSent int                `json:"applications_sent"`
	Errors           []RunErrorResponse `json:"errors,omitempty"`
}

type RunErrorResponse struct {
	Stage      string    `json:"stage"`
	ItemKey    string    `json:"item_key,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewRunResponse(rn run.Run) RunResponse {
	resp := RunResponse{
		ID:               rn.ID.String(),
		Status:           string(rn.Status),
		TriggerSource:    rn.TriggerSource,
		StartTime:        rn.StartTime,
		EndTime:          rn.EndTime,
		JobsFound:        rn.JobsFound,
		JobsFiltered:     rn.JobsFiltered,
		ApplicationsSent: rn.ApplicationsSent,
	}
	for _, e := range rn.Errors {
		resp.Errors = append(resp.Errors, RunErrorResponse{
			Stage:      string(e.Stage),
			ItemKey:    e.ItemKey,
			Message:    e.Message,
			OccurredAt: e.OccurredAt,
		})
	}
	return resp
}

func NewRunListResponse(runs []run.Run) []RunResponse {
	out := make([]RunResponse, 0, len(runs))
	for _, rn := range runs {
		out = append(out, NewRunResponse(rn))
	}
	return out
}
