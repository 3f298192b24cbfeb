package types

import "time"

// Budget types for a canonical job.
const (
	BudgetTypeHourly  = "hourly"
	BudgetTypeFixed   = "fixed"
	BudgetTypeUnknown = "unknown"
)

// RawJob wraps an untrusted provider payload. The payload shape is
// provider-specific and never propagates past the normalizer.
type RawJob struct {
	Platform  string         `json:"platform"`
	Provider  string         `json:"provider"`
	FetchedAt time.Time      `json:"fetched_at"`
	Raw       map[string]any `json:"raw"`
}

// CanonicalJob is the normalized, hash-addressable form of a job posting.
// CanonicalHash is a pure function of (TeamID, Platform, PlatformJobID) and
// is unique per team.
type CanonicalJob struct {
	TeamID         string     `json:"team_id"`
	Platform       string     `json:"platform"`
	PlatformJobID  string     `json:"platform_job_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ApplyURL       string     `json:"apply_url"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	FetchedAt      *time.Time `json:"fetched_at,omitempty"`
	BudgetType     string     `json:"budget_type"`
	HourlyMin      *float64   `json:"hourly_min,omitempty"`
	HourlyMax      *float64   `json:"hourly_max,omitempty"`
	FixedBudgetMin *float64   `json:"fixed_budget_min,omitempty"`
	FixedBudgetMax *float64   `json:"fixed_budget_max,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	ClientCountry  string     `json:"client_country,omitempty"`
	Skills         []string   `json:"skills,omitempty"`
	Seniority      string     `json:"seniority,omitempty"`
	Category       string     `json:"category,omitempty"`
	CanonicalHash  string     `json:"canonical_hash"`
}

// JobSource is the raw-payload snapshot retained for audit and replay,
// keyed by (TeamID, Platform, PlatformJobID) and upserted independently of
// the canonical job row.
type JobSource struct {
	TeamID        string         `json:"team_id"`
	Platform      string         `json:"platform"`
	PlatformJobID string         `json:"platform_job_id"`
	URL           string         `json:"url"`
	FetchedAt     *time.Time     `json:"fetched_at,omitempty"`
	RawPayload    map[string]any `json:"raw_payload"`
}

// JobRanking is a score produced by an external ranking collaborator,
// addressed by canonical hash until persistence resolves the job id.
type JobRanking struct {
	CanonicalHash string  `json:"canonical_hash"`
	Score         float64 `json:"score"`
	Reason        string  `json:"reason,omitempty"`
}
