package provider

import (
	"context"
	"time"

	"github.com/jonathan/gigfeed/internal/types"
)

// Router defaults.
const (
	DefaultMaxAttempts = 2
	DefaultTimeout     = 30 * time.Second
	DefaultRetryBase   = 250 * time.Millisecond
)

// RouterConfig configures provider selection and retry behavior.
type RouterConfig struct {
	// Priority maps a platform to an explicit ordered list of provider ids
	// to try first. Remaining platform-capable providers are appended in
	// registration order.
	Priority map[string][]string

	// MaxAttempts is the per-provider attempt count (default 2).
	MaxAttempts int

	// Timeout bounds a single provider call (default 30s).
	Timeout time.Duration

	// RetryBase scales the sleep between attempts: RetryBase * attempt.
	RetryBase time.Duration
}

// Router orchestrates provider selection, retry, timeout, and failover for
// platform searches. Health and pacing state live in the injected
// collaborators; the router itself is stateless across calls.
type Router struct {
	providers []Provider
	health    HealthStore
	limiter   RateLimiter
	cfg       RouterConfig
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRouter creates a router over the given providers. Zero config fields
// use the package defaults.
func NewRouter(providers []Provider, health HealthStore, limiter RateLimiter, cfg RouterConfig) *Router {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	return &Router{
		providers: providers,
		health:    health,
		limiter:   limiter,
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// SearchOption overrides router defaults for a single Search call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	timeout     time.Duration
	maxAttempts int
}

// WithTimeout overrides the per-provider call timeout for one search.
func WithTimeout(d time.Duration) SearchOption {
	return func(o *searchOptions) { o.timeout = d }
}

// WithMaxAttempts overrides the per-provider attempt count for one search.
func WithMaxAttempts(n int) SearchOption {
	return func(o *searchOptions) { o.maxAttempts = n }
}

// Search tries each candidate provider for the platform in priority order.
// The first success short-circuits: results are stamped with platform,
// provider id, and a fetch timestamp, and no further providers are tried.
// When every candidate fails, the aggregate *ExhaustedError is returned.
func (r *Router) Search(ctx context.Context, platform string, plan types.QueryPlan, opts ...SearchOption) ([]types.RawJob, error) {
	so := searchOptions{timeout: r.cfg.Timeout, maxAttempts: r.cfg.MaxAttempts}
	for _, opt := range opts {
		opt(&so)
	}

	candidates := r.candidatesFor(platform)
	if len(candidates) == 0 {
		return nil, &NoProviderError{Platform: platform}
	}

	req := SearchRequest{Platform: platform, Plan: plan}
	var failures []Failure

	for _, p := range candidates {
		// Circuit open: skip the provider entirely. It becomes eligible
		// again once the disable window has elapsed.
		if snap := r.health.Snapshot(p.ID()); !snap.OK {
			continue
		}

		for attempt := 1; attempt <= so.maxAttempts; attempt++ {
			if err := r.limiter.Wait(ctx, p.ID()); err != nil {
				return nil, err
			}

			jobs, err := r.searchOnce(ctx, p, req, so.timeout)
			if err == nil {
				r.health.RecordSuccess(p.ID())
				r.stamp(jobs, platform, p.ID())
				return jobs, nil
			}

			r.health.RecordFailure(p.ID())
			failures = append(failures, Failure{ProviderID: p.ID(), Attempt: attempt, Err: err})

			if attempt < so.maxAttempts {
				if err := r.sleep(ctx, r.cfg.RetryBase*time.Duration(attempt)); err != nil {
					return nil, err
				}
			}
		}
	}

	return nil, &ExhaustedError{Platform: platform, Failures: failures}
}

// candidatesFor builds the ordered candidate list: declared priority first,
// then any remaining platform-capable providers not already listed.
func (r *Router) candidatesFor(platform string) []Provider {
	byID := make(map[string]Provider, len(r.providers))
	for _, p := range r.providers {
		byID[p.ID()] = p
	}

	var out []Provider
	listed := make(map[string]bool)
	for _, id := range r.cfg.Priority[platform] {
		p, ok := byID[id]
		if !ok || !supports(p, platform) {
			continue
		}
		out = append(out, p)
		listed[id] = true
	}
	for _, p := range r.providers {
		if listed[p.ID()] || !supports(p, platform) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// searchOnce races the provider call against the timeout and the caller's
// cancellation. A provider that ignores its context cannot stall the router.
func (r *Router) searchOnce(ctx context.Context, p Provider, req SearchRequest, timeout time.Duration) ([]types.RawJob, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		jobs []types.RawJob
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		jobs, err := p.Search(callCtx, req)
		ch <- result{jobs: jobs, err: err}
	}()

	select {
	case res := <-ch:
		return res.jobs, res.err
	case <-callCtx.Done():
		return nil, callCtx.Err()
	}
}

// stamp fills platform/provider/fetchedAt defaults on results that the
// provider left blank.
func (r *Router) stamp(jobs []types.RawJob, platform, providerID string) {
	now := r.now()
	for i := range jobs {
		if jobs[i].Platform == "" {
			jobs[i].Platform = platform
		}
		if jobs[i].Provider == "" {
			jobs[i].Provider = providerID
		}
		if jobs[i].FetchedAt.IsZero() {
			jobs[i].FetchedAt = now
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
