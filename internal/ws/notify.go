package ws

import (
	"encoding/json"
	"time"

	"ai-job-bot/internal/domain/run"

	"github.com/google/uuid"
)

type RunEvent struct {
	Type             string `json:"type"`
	RunID            string `json:"run_id"`
	Status           string `json:"status,omitempty"`
	Stage            string `json:"stage,omitempty"`
	Detail           string `json:"detail,omitempty"`
	JobsFound        int    `json:"jobs_found,omitempty"`
	JobsFiltered     int    `json:"jobs_filtered,omitempty"`
	ApplicationsSent int    `json:"applications_sent,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// RunNotifier fans pipeline progress out to the hub. Satisfies the
// orchestrator's notifier contract and never blocks.
type RunNotifier struct {
	hub *Hub
}

func NewRunNotifier(hub *Hub) *RunNotifier {
	return &RunNotifier{hub: hub}
}

func (n *RunNotifier) RunStarted(r run.Run) {
	n.publish(RunEvent{
		Type:   "run_started",
		RunID:  r.ID.String(),
		Status: string(r.Status),
	})
}

func (n *RunNotifier) StageDone(runID uuid.UUID, stage run.Stage, detail string) {
	n.publish(RunEvent{
		Type:   "run_stage",
		RunID:  runID.String(),
		Stage:  string(stage),
		Detail: detail,
	})
}

func (n *RunNotifier) RunFinished(r run.Run) {
	n.publish(RunEvent{
		Type:             "run_finished",
		RunID:            r.ID.String(),
		Status:           string(r.Status),
		JobsFound:        r.JobsFound,
		JobsFiltered:     r.JobsFiltered,
		ApplicationsSent: r.ApplicationsSent,
	})
}

func (n *RunNotifier) publish(evt RunEvent) {
	if n == nil || n.hub == nil {
		return
	}
	evt.Timestamp = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
