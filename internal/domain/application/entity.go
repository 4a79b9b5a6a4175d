package application

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusSubmitted   Status = "submitted"
	StatusNeedsManual Status = "needs_manual"
	StatusFailed      Status = "failed"
)

type Application struct {
	ID        uuid.UUID
	PostingID uuid.UUID
	RunID     uuid.UUID
	Status    Status
	Message   string
	Error     string

	SubmittedAt *time.Time

	// Flipped later by the inbox watcher, never by the pipeline.
	ResponseReceived bool
	ResponseDate     *time.Time

	CreatedAt time.Time
}
