// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file, with secrets filled in from the environment. All fields are
// optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Identity
	TeamID string `json:"team_id,omitempty"` // Team the ingestion runs for

	// Connections
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty"`    // Redis URL for run notifications (optional)

	// Provider credentials
	AdzunaAppID   string `json:"adzuna_app_id,omitempty"`
	AdzunaAppKey  string `json:"adzuna_app_key,omitempty"`
	AdzunaCountry string `json:"adzuna_country,omitempty"` // Country slug for the Adzuna API, default "us"
	ScrapeBaseURL string `json:"scrape_base_url,omitempty"`
	ScrapeAPIKey  string `json:"scrape_api_key,omitempty"`

	// Router tuning
	ProviderPriority     map[string][]string `json:"provider_priority,omitempty"` // platform -> ordered provider IDs
	MinIntervalMs        int                 `json:"min_interval_ms,omitempty"`   // Per-provider request spacing
	DisableAfterFailures int                 `json:"disable_after_failures,omitempty"`
	DisableForSec        int                 `json:"disable_for_sec,omitempty"`
	MaxAttempts          int                 `json:"max_attempts,omitempty"`
	TimeoutSec           int                 `json:"timeout_sec,omitempty"` // Per-attempt provider timeout

	// Directly scraped HTML boards
	Boards []BoardConfig `json:"boards,omitempty"`

	// Behavior
	ScheduleEvery string `json:"schedule_every,omitempty"` // Cron spec or @every duration for scheduled runs
	UseBrowser    bool   `json:"use_browser,omitempty"`    // Use headless browser for SPA boards
	Verbose       bool   `json:"verbose,omitempty"`        // Print detailed debug information
}

// BoardConfig describes one HTML job board scraped directly, mapping its
// listing markup to raw job fields.
type BoardConfig struct {
	ProviderID   string            `json:"provider_id"`
	Platform     string            `json:"platform"`
	SearchURL    string            `json:"search_url"`
	QueryParam   string            `json:"query_param,omitempty"`
	CardSelector string            `json:"card_selector"`
	Fields       map[string]string `json:"fields"`
	Attrs        map[string]string `json:"attrs,omitempty"`
	UseBrowser   bool              `json:"use_browser,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg.applyEnv()
	return &cfg, nil
}

// applyEnv fills connection and credential fields from the environment
// when the config file leaves them empty. Secrets normally arrive this way.
func (c *Config) applyEnv() {
	envFill(&c.DatabaseURL, "DATABASE_URL")
	envFill(&c.RedisURL, "REDIS_URL")
	envFill(&c.AdzunaAppID, "ADZUNA_APP_ID")
	envFill(&c.AdzunaAppKey, "ADZUNA_APP_KEY")
	envFill(&c.ScrapeBaseURL, "SCRAPE_BASE_URL")
	envFill(&c.ScrapeAPIKey, "SCRAPE_API_KEY")
}

func envFill(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// Validate checks that the configuration has valid values.
// Required fields are enforced by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.MinIntervalMs < 0 {
		return fmt.Errorf("config error: 'min_interval_ms' must be non-negative")
	}
	if c.DisableAfterFailures < 0 {
		return fmt.Errorf("config error: 'disable_after_failures' must be non-negative")
	}
	if c.DisableForSec < 0 {
		return fmt.Errorf("config error: 'disable_for_sec' must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("config error: 'timeout_sec' must be non-negative")
	}

	if (c.AdzunaAppID == "") != (c.AdzunaAppKey == "") {
		return fmt.Errorf("config error: 'adzuna_app_id' and 'adzuna_app_key' must be set together")
	}

	for i, b := range c.Boards {
		if b.ProviderID == "" || b.Platform == "" || b.SearchURL == "" || b.CardSelector == "" {
			return fmt.Errorf("config error: boards[%d] needs 'provider_id', 'platform', 'search_url', and 'card_selector'", i)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Config file values act as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.TeamID == "" {
		result.TeamID = defaults.TeamID
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.AdzunaAppID == "" {
		result.AdzunaAppID = defaults.AdzunaAppID
	}
	if result.AdzunaAppKey == "" {
		result.AdzunaAppKey = defaults.AdzunaAppKey
	}
	if result.AdzunaCountry == "" {
		result.AdzunaCountry = defaults.AdzunaCountry
	}
	if result.ScrapeBaseURL == "" {
		result.ScrapeBaseURL = defaults.ScrapeBaseURL
	}
	if result.ScrapeAPIKey == "" {
		result.ScrapeAPIKey = defaults.ScrapeAPIKey
	}
	if result.ScheduleEvery == "" {
		result.ScheduleEvery = defaults.ScheduleEvery
	}
	if result.ProviderPriority == nil {
		result.ProviderPriority = defaults.ProviderPriority
	}
	if result.Boards == nil {
		result.Boards = defaults.Boards
	}

	if result.MinIntervalMs == 0 {
		result.MinIntervalMs = defaults.MinIntervalMs
	}
	if result.DisableAfterFailures == 0 {
		result.DisableAfterFailures = defaults.DisableAfterFailures
	}
	if result.DisableForSec == 0 {
		result.DisableForSec = defaults.DisableForSec
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.TimeoutSec == 0 {
		result.TimeoutSec = defaults.TimeoutSec
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// MinInterval returns the per-provider spacing as a duration, zero when
// unset so the router default applies.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

// Timeout returns the per-attempt timeout, zero when unset.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// DisableFor returns the circuit hold-off duration, zero when unset.
func (c *Config) DisableFor() time.Duration {
	return time.Duration(c.DisableForSec) * time.Second
}
