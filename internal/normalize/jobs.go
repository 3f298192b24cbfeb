// Package normalize turns untrusted raw provider payloads into canonical,
// hash-addressable job records.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/gigfeed/internal/types"
)

// MaxDescriptionLength caps the assembled description text.
const MaxDescriptionLength = 4000

// Ordered fallback chains for the fields providers disagree on.
var (
	idFields       = []string{"platform_job_id", "external_id", "id", "job_id", "uid"}
	titleFields    = []string{"title", "job_title", "name", "position"}
	applyURLFields = []string{"apply_url", "redirect_url", "url", "link", "job_url", "href"}
	summaryFields  = []string{"summary", "snippet", "teaser"}
	bodyFields     = []string{"description", "description_html", "body", "details"}
	postedFields   = []string{"posted_at", "created", "published_at", "date_posted"}
	fetchedFields  = []string{"fetched_at"}
	companyFields  = []string{"company", "company_name", "employer"}
	locationFields = []string{"location", "candidate_location", "city"}
	currencyFields = []string{"currency", "salary_currency"}
	categoryFields = []string{"category", "job_category"}
)

// Batch is the output of one NormalizeBatch call. Skipped counts records
// dropped for structural reasons or within-batch duplication.
type Batch struct {
	Jobs    []types.CanonicalJob
	Sources []types.JobSource
	Skipped int
}

// JobNormalizer converts raw provider payloads into canonical jobs. It never
// fails on malformed individual records; they are counted as skipped.
type JobNormalizer struct {
	now func() time.Time
}

// NewJobNormalizer creates a normalizer using the wall clock for fallback
// fetch timestamps.
func NewJobNormalizer() *JobNormalizer {
	return &JobNormalizer{now: time.Now}
}

// NormalizeBatch normalizes every raw job for one team, deduplicating by
// canonical hash within the batch.
func (n *JobNormalizer) NormalizeBatch(raws []types.RawJob, teamID string) Batch {
	var batch Batch
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		job, source, ok := n.normalizeOne(raw, teamID)
		if !ok {
			batch.Skipped++
			continue
		}
		if seen[job.CanonicalHash] {
			batch.Skipped++
			continue
		}
		seen[job.CanonicalHash] = true
		batch.Jobs = append(batch.Jobs, job)
		batch.Sources = append(batch.Sources, source)
	}

	return batch
}

func (n *JobNormalizer) normalizeOne(raw types.RawJob, teamID string) (types.CanonicalJob, types.JobSource, bool) {
	var zeroJob types.CanonicalJob
	var zeroSource types.JobSource

	platformJobID := firstString(raw.Raw, idFields)
	if platformJobID == "" {
		return zeroJob, zeroSource, false
	}

	title := collapseWhitespace(firstString(raw.Raw, titleFields))
	if title == "" {
		return zeroJob, zeroSource, false
	}

	applyURL := firstString(raw.Raw, applyURLFields)
	if applyURL == "" {
		return zeroJob, zeroSource, false
	}

	company := displayName(raw.Raw, companyFields)
	location := displayName(raw.Raw, locationFields)
	summary := firstString(raw.Raw, summaryFields)
	body := firstString(raw.Raw, bodyFields)

	description := buildDescription(title, company, location, summary, body)

	postedAt := parseTimestamp(firstString(raw.Raw, postedFields))
	fetchedAt := parseTimestamp(firstString(raw.Raw, fetchedFields))
	if fetchedAt == nil {
		var t time.Time
		if !raw.FetchedAt.IsZero() {
			t = raw.FetchedAt
		} else {
			t = n.now()
		}
		fetchedAt = &t
	}

	budgetType, hourlyMin, hourlyMax, fixedMin, fixedMax := extractBudget(raw.Raw)

	job := types.CanonicalJob{
		TeamID:         teamID,
		Platform:       raw.Platform,
		PlatformJobID:  platformJobID,
		Title:          title,
		Description:    description,
		ApplyURL:       applyURL,
		PostedAt:       postedAt,
		FetchedAt:      fetchedAt,
		BudgetType:     budgetType,
		HourlyMin:      hourlyMin,
		HourlyMax:      hourlyMax,
		FixedBudgetMin: fixedMin,
		FixedBudgetMax: fixedMax,
		Currency:       strings.ToUpper(firstString(raw.Raw, currencyFields)),
		ClientCountry:  extractCountry(raw.Raw, location),
		Skills:         ExtractSkills(title + " " + description),
		Category:       collapseWhitespace(firstString(raw.Raw, categoryFields)),
		CanonicalHash:  CanonicalHash(teamID, raw.Platform, platformJobID),
	}

	source := types.JobSource{
		TeamID:        teamID,
		Platform:      raw.Platform,
		PlatformJobID: platformJobID,
		URL:           applyURL,
		FetchedAt:     fetchedAt,
		RawPayload:    raw.Raw,
	}

	return job, source, true
}

// CanonicalHash is the dedup/upsert key for a job posting: a pure function
// of (teamID, platform, platformJobID).
func CanonicalHash(teamID, platform, platformJobID string) string {
	h := sha256.Sum256([]byte(teamID + ":" + platform + ":" + platformJobID))
	return hex.EncodeToString(h[:])
}

// buildDescription concatenates whitespace-normalized segments, skipping
// segments that duplicate earlier ones, capped at MaxDescriptionLength.
func buildDescription(title, company, location, summary, body string) string {
	title = collapseWhitespace(title)
	summary = collapseWhitespace(summary)
	body = collapseWhitespace(body)

	segments := []string{title}
	if company = collapseWhitespace(company); company != "" {
		segments = append(segments, "Company: "+company)
	}
	if location = collapseWhitespace(location); location != "" {
		segments = append(segments, "Location: "+location)
	}
	if summary != "" && summary != title {
		segments = append(segments, summary)
	}
	if body != "" && body != summary {
		segments = append(segments, body)
	}

	return truncateBytes(strings.Join(segments, "\n\n"), MaxDescriptionLength)
}

// truncateBytes caps s at max bytes without splitting a multi-byte rune, so
// the result is always valid UTF-8 when the input is.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// extractBudget reads salary/budget bounds and classifies the budget type.
func extractBudget(raw map[string]any) (budgetType string, hourlyMin, hourlyMax, fixedMin, fixedMax *float64) {
	budgetType = types.BudgetTypeUnknown

	declared := strings.ToLower(firstString(raw, []string{"budget_type", "contract_time", "pay_type"}))
	switch {
	case strings.Contains(declared, "hour"):
		budgetType = types.BudgetTypeHourly
	case strings.Contains(declared, "fixed") || strings.Contains(declared, "project"):
		budgetType = types.BudgetTypeFixed
	}

	if v := floatField(raw, "hourly_min", "hourly_rate_min"); v != nil {
		budgetType = types.BudgetTypeHourly
		hourlyMin = v
	}
	if v := floatField(raw, "hourly_max", "hourly_rate_max"); v != nil {
		budgetType = types.BudgetTypeHourly
		hourlyMax = v
	}
	if v := floatField(raw, "fixed_budget_min", "budget_min"); v != nil {
		fixedMin = v
		if budgetType == types.BudgetTypeUnknown {
			budgetType = types.BudgetTypeFixed
		}
	}
	if v := floatField(raw, "fixed_budget_max", "budget_max", "budget"); v != nil {
		fixedMax = v
		if budgetType == types.BudgetTypeUnknown {
			budgetType = types.BudgetTypeFixed
		}
	}

	// Generic salary bounds land on whichever type was declared, defaulting
	// to hourly bounds only for an explicit hourly posting.
	if min := floatField(raw, "salary_min"); min != nil {
		if budgetType == types.BudgetTypeHourly {
			hourlyMin = min
		} else if fixedMin == nil {
			fixedMin = min
			if budgetType == types.BudgetTypeUnknown {
				budgetType = types.BudgetTypeFixed
			}
		}
	}
	if max := floatField(raw, "salary_max"); max != nil {
		if budgetType == types.BudgetTypeHourly {
			hourlyMax = max
		} else if fixedMax == nil {
			fixedMax = max
		}
	}

	return budgetType, hourlyMin, hourlyMax, fixedMin, fixedMax
}

// extractCountry resolves the client country from an explicit code field,
// falling back to the trailing comma-delimited segment of the location.
func extractCountry(raw map[string]any, location string) string {
	if code := firstString(raw, []string{"client_country", "country_code", "country"}); code != "" {
		return ResolveCountry(code)
	}
	if location == "" {
		return ""
	}
	parts := strings.Split(location, ",")
	return ResolveCountry(strings.TrimSpace(parts[len(parts)-1]))
}

// parseTimestamp parses an ISO timestamp, returning nil when unparseable.
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// firstString walks the fallback chain and returns the first non-blank
// string value.
func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		case fmt.Stringer:
			if out := strings.TrimSpace(s.String()); out != "" {
				return out
			}
		case float64:
			// Numeric ids arrive as JSON numbers.
			return strings.TrimSuffix(fmt.Sprintf("%.0f", s), ".0")
		case int:
			return fmt.Sprintf("%d", s)
		}
	}
	return ""
}

// displayName handles fields that are either a plain string or a nested
// object with a display_name/name key (Adzuna-style payloads).
func displayName(raw map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) != "" {
				return strings.TrimSpace(val)
			}
		case map[string]any:
			for _, inner := range []string{"display_name", "name"} {
				if s, ok := val[inner].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return ""
}

func floatField(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				out := n
				return &out
			}
		case int:
			if n > 0 {
				out := float64(n)
				return &out
			}
		}
	}
	return nil
}

// collapseWhitespace folds all whitespace runs into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
