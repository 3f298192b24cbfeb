package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/gigfeed/internal/types"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per query
	adzunaTimeout  = 15 * time.Second
)

// AdzunaProvider fetches job postings from the Adzuna public API.
type AdzunaProvider struct {
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", …
	client  *http.Client
}

// NewAdzunaProvider constructs the provider with a shared HTTP client.
func NewAdzunaProvider(appID, appKey, country string) *AdzunaProvider {
	if country == "" {
		country = "us"
	}
	return &AdzunaProvider{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		client:  &http.Client{Timeout: adzunaTimeout},
	}
}

// ID implements Provider.
func (p *AdzunaProvider) ID() string { return "adzuna" }

// Platforms implements Provider.
func (p *AdzunaProvider) Platforms() []string { return []string{"adzuna"} }

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []map[string]any `json:"results"`
	Count   int              `json:"count"`
}

// Search retrieves postings for the query plan, iterating through pages
// until no more results or the page cap is reached.
func (p *AdzunaProvider) Search(ctx context.Context, req SearchRequest) ([]types.RawJob, error) {
	if p.AppID == "" || p.AppKey == "" {
		return nil, fmt.Errorf("adzuna credentials not configured")
	}

	what := strings.Join(req.Plan.Keywords, " ")
	var where string
	if req.Plan.Filters != nil {
		where = req.Plan.Filters.Location
	}

	maxPages := adzunaMaxPages
	startPage := 1
	if req.Plan.Paging != nil && req.Plan.Paging.Page > 0 {
		startPage = req.Plan.Paging.Page
		maxPages = 1
	}

	var jobs []types.RawJob
	for page := startPage; page < startPage+maxPages; page++ {
		batch, err := p.fetchPage(ctx, what, where, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, raw := range batch {
			jobs = append(jobs, types.RawJob{Platform: req.Platform, Provider: p.ID(), Raw: raw})
		}
		if len(batch) < adzunaPageSize {
			break
		}
	}

	return jobs, nil
}

func (p *AdzunaProvider) fetchPage(ctx context.Context, what, where string, page int) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", adzunaBaseURL, p.Country, page)

	params := url.Values{}
	params.Set("app_id", p.AppID)
	params.Set("app_key", p.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", what)
	if where != "" {
		params.Set("where", where)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	return apiResp.Results, nil
}
