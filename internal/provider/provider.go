// Package provider defines the pluggable job-board provider contract and the
// routing, health, and pacing infrastructure around it.
package provider

import (
	"context"

	"github.com/jonathan/gigfeed/internal/types"
)

// SearchRequest describes a single provider search.
type SearchRequest struct {
	Platform string
	Plan     types.QueryPlan
}

// Provider is a pluggable integration exposing a uniform search contract
// for one or more job-board platforms. Any returned error is treated as a
// provider failure by the router.
type Provider interface {
	// ID uniquely identifies this provider for health and pacing state.
	ID() string

	// Platforms lists the platforms this provider can search.
	Platforms() []string

	// Search runs one query against the provider. Implementations must
	// honor ctx cancellation.
	Search(ctx context.Context, req SearchRequest) ([]types.RawJob, error)
}

// supports reports whether p can serve the given platform.
func supports(p Provider, platform string) bool {
	for _, pl := range p.Platforms() {
		if pl == platform {
			return true
		}
	}
	return false
}
