package provider

import (
	"context"
	"strings"

	"github.com/jonathan/gigfeed/internal/scrape"
	"github.com/jonathan/gigfeed/internal/types"
)

// ScrapeProvider serves platforms that require the external long-running
// scrape service (e.g. boards without a public API). One search triggers a
// scrape run and polls it to completion; the poll budget is bounded, so a
// stalled run surfaces as a terminal *scrape.TimeoutError.
type ScrapeProvider struct {
	id        string
	platforms []string
	client    *scrape.Client
}

// NewScrapeProvider constructs a scrape-backed provider for the given
// platforms.
func NewScrapeProvider(id string, platforms []string, client *scrape.Client) *ScrapeProvider {
	return &ScrapeProvider{id: id, platforms: platforms, client: client}
}

// ID implements Provider.
func (p *ScrapeProvider) ID() string { return p.id }

// Platforms implements Provider.
func (p *ScrapeProvider) Platforms() []string { return p.platforms }

// Search implements Provider.
func (p *ScrapeProvider) Search(ctx context.Context, req SearchRequest) ([]types.RawJob, error) {
	query := scrape.Query{
		Platform: req.Platform,
		Keywords: req.Plan.Keywords,
	}
	if req.Plan.Filters != nil {
		query.Location = req.Plan.Filters.Location
	}
	if req.Plan.Paging != nil {
		query.Page = req.Plan.Paging.Page
	}

	runID, err := p.client.Trigger(ctx, query)
	if err != nil {
		return nil, err
	}

	status, err := p.client.PollUntilComplete(ctx, runID)
	if err != nil {
		return nil, err
	}

	jobs := make([]types.RawJob, 0, len(status.Data))
	for _, raw := range status.Data {
		jobs = append(jobs, types.RawJob{Platform: req.Platform, Provider: p.id, Raw: raw})
	}
	return jobs, nil
}

// ScrapePlatformID builds a conventional provider id for a scrape-backed
// platform set, e.g. "scrape-linkedin-upwork".
func ScrapePlatformID(platforms []string) string {
	return "scrape-" + strings.Join(platforms, "-")
}
