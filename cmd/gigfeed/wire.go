package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jonathan/gigfeed/internal/config"
	"github.com/jonathan/gigfeed/internal/db"
	"github.com/jonathan/gigfeed/internal/fetch"
	"github.com/jonathan/gigfeed/internal/ingest"
	"github.com/jonathan/gigfeed/internal/notify"
	"github.com/jonathan/gigfeed/internal/provider"
	"github.com/jonathan/gigfeed/internal/scrape"
)

// scrapePlatforms are the platforms served through the external scrape
// service when it is configured.
var scrapePlatforms = []string{"upwork", "linkedin", "freelancer"}

// pipeline bundles everything one ingestion run needs plus the handles
// that must be closed afterwards.
type pipeline struct {
	cfg      *config.Config
	database *db.DB
	router   *provider.Router
	task     *ingest.Task
	notifier *notify.Publisher
}

func (p *pipeline) Close() {
	if p.notifier != nil {
		if err := p.notifier.Close(); err != nil {
			log.Printf("failed to close notifier: %v", err)
		}
	}
	if p.database != nil {
		p.database.Close()
	}
}

// loadMergedConfig loads the optional config file and applies validation.
func loadMergedConfig(configPath string) (*config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		// No file: fall back to pure env configuration.
		merged := cfg.MergeWithDefaults(config.Config{
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			RedisURL:      os.Getenv("REDIS_URL"),
			AdzunaAppID:   os.Getenv("ADZUNA_APP_ID"),
			AdzunaAppKey:  os.Getenv("ADZUNA_APP_KEY"),
			ScrapeBaseURL: os.Getenv("SCRAPE_BASE_URL"),
			ScrapeAPIKey:  os.Getenv("SCRAPE_API_KEY"),
		})
		cfg = &merged
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPipeline wires providers, router, stores, and the ingestion task
// from the merged configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, verbose bool) (*pipeline, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL not configured (set DATABASE_URL or database_url)")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	var providers []provider.Provider
	if cfg.ScrapeBaseURL != "" {
		client := scrape.NewClient(cfg.ScrapeBaseURL, cfg.ScrapeAPIKey)
		providers = append(providers, provider.NewScrapeProvider(
			provider.ScrapePlatformID(scrapePlatforms), scrapePlatforms, client))
	}
	if cfg.AdzunaAppID != "" {
		providers = append(providers, provider.NewAdzunaProvider(
			cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry))
	}
	for _, b := range cfg.Boards {
		providers = append(providers, provider.NewBoardProvider(provider.BoardConfig{
			ProviderID: b.ProviderID,
			Platform:   b.Platform,
			SearchURL:  b.SearchURL,
			QueryParam: b.QueryParam,
			Selectors: fetch.CardSelectors{
				Card:   b.CardSelector,
				Fields: b.Fields,
				Attrs:  b.Attrs,
			},
			UseBrowser: b.UseBrowser || cfg.UseBrowser,
		}, nil, verbose))
	}
	if len(providers) == 0 {
		database.Close()
		return nil, fmt.Errorf("no providers configured (set scrape credentials, Adzuna credentials, or boards)")
	}

	health := provider.NewMemoryHealthStore(provider.HealthConfig{
		DisableAfterFailures: cfg.DisableAfterFailures,
		DisableFor:           cfg.DisableFor(),
	})
	limiter := provider.NewIntervalLimiter(cfg.MinInterval())
	router := provider.NewRouter(providers, health, limiter, provider.RouterConfig{
		Priority:    cfg.ProviderPriority,
		MaxAttempts: cfg.MaxAttempts,
		Timeout:     cfg.Timeout(),
	})

	taskOpts := []ingest.TaskOption{ingest.WithVerbose(verbose)}
	var notifier *notify.Publisher
	if cfg.RedisURL != "" {
		notifier, err = notify.NewPublisher(ctx, cfg.RedisURL)
		if err != nil {
			// Notifications are best-effort; the run proceeds without them.
			log.Printf("redis unavailable, run notifications disabled: %v", err)
		} else {
			taskOpts = append(taskOpts, ingest.WithNotifier(notifier))
		}
	}

	task := ingest.NewTask(router, database, database, taskOpts...)

	return &pipeline{
		cfg:      cfg,
		database: database,
		router:   router,
		task:     task,
		notifier: notifier,
	}, nil
}
