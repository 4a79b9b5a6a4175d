package run

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether a run can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Stage string

const (
	StageFetch    Stage = "fetch"
	StageDedupe   Stage = "dedupe"
	StageScore    Stage = "score"
	StageApply    Stage = "apply"
	StageFinalize Stage = "finalize"
)

type Run struct {
	ID            uuid.UUID
	Status        Status
	TriggerSource string
	StartTime     time.Time
	EndTime       *time.Time

	JobsFound        int
	JobsFiltered     int
	ApplicationsSent int

	Errors []ErrorRecord

	CreatedAt time.Time
}

// ErrorRecord is one append-only entry in a run's error log. ItemKey
// identifies the posting or source the failure belongs to, empty for
// run-level failures.
type ErrorRecord struct {
	ID         uuid.UUID
	RunID      uuid.UUID
	Stage      Stage
	ItemKey    string
	Message    string
	OccurredAt time.Time
}
