// Package types defines the shared data model for the ingestion pipeline.
package types

// QueryPlan describes one provider search request: what to search for,
// optional filters, and optional paging.
type QueryPlan struct {
	Keywords []string      `json:"keywords" validate:"required,min=1,dive,min=1"`
	Filters  *QueryFilters `json:"filters,omitempty"`
	Paging   *Paging       `json:"paging,omitempty"`
}

// QueryFilters narrows a provider search.
type QueryFilters struct {
	Location         string   `json:"location,omitempty"`
	Remote           bool     `json:"remote,omitempty"`
	BudgetMin        *float64 `json:"budget_min,omitempty"`
	BudgetMax        *float64 `json:"budget_max,omitempty"`
	PostedWithinDays int      `json:"posted_within_days,omitempty" validate:"gte=0"`
}

// Paging controls result pagination for providers that support it.
type Paging struct {
	Page    int `json:"page,omitempty" validate:"gte=0"`
	PerPage int `json:"per_page,omitempty" validate:"gte=0,lte=100"`
}

// PlannedQuery binds a QueryPlan to the platform it targets. A batch of
// these is the input to one ingestion run.
type PlannedQuery struct {
	Platform  string    `json:"platform" validate:"required"`
	Plan      QueryPlan `json:"plan" validate:"required"`
	TimeoutMs int       `json:"timeout_ms,omitempty" validate:"gte=0"`
}
