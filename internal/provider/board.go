package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/gigfeed/internal/fetch"
	"github.com/jonathan/gigfeed/internal/types"
)

// BoardConfig describes one HTML job board scraped directly.
type BoardConfig struct {
	// ProviderID identifies this board for health/pacing state.
	ProviderID string

	// Platform is the platform this board serves.
	Platform string

	// SearchURL is the board search endpoint; the query string parameter
	// named by QueryParam carries the keywords.
	SearchURL  string
	QueryParam string

	// Selectors map the board's listing markup to raw job fields. The
	// extracted fields should include at least id, title, and url.
	Selectors fetch.CardSelectors

	// UseBrowser renders the page in a headless browser when a plain fetch
	// yields too little content (JS-rendered boards).
	UseBrowser bool
}

// BoardProvider scrapes an HTML job board's search page and emits one raw
// job per listing card.
type BoardProvider struct {
	cfg     BoardConfig
	options *fetch.Options
	verbose bool
}

// NewBoardProvider constructs a board scraper.
func NewBoardProvider(cfg BoardConfig, options *fetch.Options, verbose bool) *BoardProvider {
	if options == nil {
		options = fetch.DefaultOptions()
	}
	return &BoardProvider{cfg: cfg, options: options, verbose: verbose}
}

// ID implements Provider.
func (p *BoardProvider) ID() string { return p.cfg.ProviderID }

// Platforms implements Provider.
func (p *BoardProvider) Platforms() []string { return []string{p.cfg.Platform} }

// Search implements Provider.
func (p *BoardProvider) Search(ctx context.Context, req SearchRequest) ([]types.RawJob, error) {
	searchURL, err := p.buildURL(req.Plan)
	if err != nil {
		return nil, err
	}

	result, err := fetch.URL(ctx, searchURL, p.options)
	if err != nil {
		return nil, err
	}

	html := result.HTML
	if p.cfg.UseBrowser {
		text, terr := fetch.ExtractMainText(html, fetch.JobPostingSelectors())
		if terr == nil && fetch.ShouldUseBrowser(text) {
			rendered, berr := fetch.WithBrowser(ctx, searchURL, p.options.Timeout, p.verbose)
			if berr != nil {
				return nil, berr
			}
			html = rendered
		}
	}

	cards, err := fetch.ExtractCards(html, p.cfg.Selectors)
	if err != nil {
		return nil, err
	}

	jobs := make([]types.RawJob, 0, len(cards))
	for _, card := range cards {
		raw := make(map[string]any, len(card.Fields))
		for k, v := range card.Fields {
			raw[k] = v
		}
		// Relative apply links resolve against the board host.
		if href, ok := card.Fields["url"]; ok && strings.HasPrefix(href, "/") {
			if base, perr := url.Parse(p.cfg.SearchURL); perr == nil {
				raw["url"] = base.Scheme + "://" + base.Host + href
			}
		}
		jobs = append(jobs, types.RawJob{Platform: req.Platform, Provider: p.ID(), Raw: raw})
	}

	return jobs, nil
}

func (p *BoardProvider) buildURL(plan types.QueryPlan) (string, error) {
	base, err := url.Parse(p.cfg.SearchURL)
	if err != nil {
		return "", fmt.Errorf("invalid board search URL %q: %w", p.cfg.SearchURL, err)
	}

	q := base.Query()
	param := p.cfg.QueryParam
	if param == "" {
		param = "q"
	}
	q.Set(param, strings.Join(plan.Keywords, " "))
	if plan.Filters != nil && plan.Filters.Location != "" {
		q.Set("location", plan.Filters.Location)
	}
	if plan.Paging != nil && plan.Paging.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", plan.Paging.Page))
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}
