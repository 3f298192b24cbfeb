package db

import (
	"time"

	"github.com/google/uuid"
)

// Agent run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AgentRun is one ingestion run for a team.
type AgentRun struct {
	ID          uuid.UUID  `json:"id"`
	TeamID      string     `json:"team_id"`
	Status      string     `json:"status"`
	JobsFound   int        `json:"jobs_found"`
	JobsSkipped int        `json:"jobs_skipped"`
	Error       *string    `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RawProfileRow is a stored raw profile document awaiting normalization.
type RawProfileRow struct {
	ID        uuid.UUID `json:"id"`
	TeamID    string    `json:"team_id"`
	Payload   []byte    `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}
