package posting

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity is the stable key of a posting across runs: the declaring source
// plus the external id the source assigned (or a link-derived fallback).
type Identity struct {
	Source     string
	ExternalID string
}

func (id Identity) Key() string {
	return id.Source + "|" + id.ExternalID
}

func (id Identity) Valid() bool {
	return strings.TrimSpace(id.Source) != "" && strings.TrimSpace(id.ExternalID) != ""
}

type Posting struct {
	ID           uuid.UUID
	Source       string
	ExternalID   string
	Title        string
	Company      string
	Location     string
	Salary       *string
	Tags         []string
	Description  string
	URL          string
	DiscoveredAt time.Time

	// Set once by the scorer; historical scores are never rewritten.
	Score          *int
	ScoreRationale *string

	RunID     *uuid.UUID
	CreatedAt time.Time
}

func (p Posting) Identity() Identity {
	return Identity{Source: p.Source, ExternalID: p.ExternalID}
}
