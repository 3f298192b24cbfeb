package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gigfeed/internal/types"
)

type stubProvider struct {
	id        string
	platforms []string
	jobs      []types.RawJob
	err       error
	calls     int
	block     bool
}

func (p *stubProvider) ID() string          { return p.id }
func (p *stubProvider) Platforms() []string { return p.platforms }

func (p *stubProvider) Search(ctx context.Context, _ SearchRequest) ([]types.RawJob, error) {
	p.calls++
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.jobs, nil
}

type noopLimiter struct{}

func (noopLimiter) Wait(context.Context, string) error { return nil }

func newTestRouter(providers []Provider, cfg RouterConfig) *Router {
	r := NewRouter(providers, NewMemoryHealthStore(HealthConfig{}), noopLimiter{}, cfg)
	// No real sleeping between attempts in tests.
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return r
}

func plan(keywords ...string) types.QueryPlan {
	return types.QueryPlan{Keywords: keywords}
}

func TestRouterFailover(t *testing.T) {
	failing := &stubProvider{id: "a", platforms: []string{"upwork"}, err: errors.New("rate limited")}
	working := &stubProvider{id: "b", platforms: []string{"upwork"}, jobs: []types.RawJob{
		{Raw: map[string]any{"id": "1"}},
	}}

	r := newTestRouter([]Provider{failing, working}, RouterConfig{})
	jobs, err := r.Search(context.Background(), "upwork", plan("golang"))

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, DefaultMaxAttempts, failing.calls, "failing provider gets its full attempt budget")
	assert.Equal(t, 1, working.calls, "success short-circuits")
}

func TestRouterStampsResults(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	p := &stubProvider{id: "a", platforms: []string{"upwork"}, jobs: []types.RawJob{
		{Raw: map[string]any{"id": "1"}},
		{Platform: "other", Provider: "custom", FetchedAt: now.Add(-time.Hour), Raw: map[string]any{"id": "2"}},
	}}

	r := newTestRouter([]Provider{p}, RouterConfig{})
	r.now = func() time.Time { return now }

	jobs, err := r.Search(context.Background(), "upwork", plan("golang"))
	require.NoError(t, err)

	assert.Equal(t, "upwork", jobs[0].Platform)
	assert.Equal(t, "a", jobs[0].Provider)
	assert.Equal(t, now, jobs[0].FetchedAt)

	// Pre-filled fields are left alone.
	assert.Equal(t, "other", jobs[1].Platform)
	assert.Equal(t, "custom", jobs[1].Provider)
	assert.Equal(t, now.Add(-time.Hour), jobs[1].FetchedAt)
}

func TestRouterPriorityOrder(t *testing.T) {
	first := &stubProvider{id: "a", platforms: []string{"upwork"}, jobs: []types.RawJob{{Raw: map[string]any{"id": "a1"}}}}
	preferred := &stubProvider{id: "b", platforms: []string{"upwork"}, jobs: []types.RawJob{{Raw: map[string]any{"id": "b1"}}}}

	r := newTestRouter([]Provider{first, preferred}, RouterConfig{
		Priority: map[string][]string{"upwork": {"b"}},
	})

	jobs, err := r.Search(context.Background(), "upwork", plan("golang"))
	require.NoError(t, err)
	assert.Equal(t, "b", jobs[0].Provider)
	assert.Zero(t, first.calls)
}

func TestRouterSkipsOpenCircuits(t *testing.T) {
	disabled := &stubProvider{id: "a", platforms: []string{"upwork"}}
	healthy := &stubProvider{id: "b", platforms: []string{"upwork"}, jobs: []types.RawJob{{Raw: map[string]any{"id": "1"}}}}

	health := NewMemoryHealthStore(HealthConfig{DisableAfterFailures: 1, DisableFor: time.Hour})
	health.RecordFailure("a")

	r := NewRouter([]Provider{disabled, healthy}, health, noopLimiter{}, RouterConfig{})
	jobs, err := r.Search(context.Background(), "upwork", plan("golang"))

	require.NoError(t, err)
	assert.Equal(t, "b", jobs[0].Provider)
	assert.Zero(t, disabled.calls, "open circuit means no call at all")
}

func TestRouterExhaustion(t *testing.T) {
	a := &stubProvider{id: "a", platforms: []string{"upwork"}, err: errors.New("boom")}
	b := &stubProvider{id: "b", platforms: []string{"upwork"}, err: errors.New("bust")}

	r := newTestRouter([]Provider{a, b}, RouterConfig{MaxAttempts: 2})
	_, err := r.Search(context.Background(), "upwork", plan("golang"))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "upwork", exhausted.Platform)
	require.Len(t, exhausted.Failures, 4, "two attempts per provider")
	assert.Equal(t, "a", exhausted.Failures[0].ProviderID)
	assert.Equal(t, 1, exhausted.Failures[0].Attempt)
	assert.Equal(t, 2, exhausted.Failures[1].Attempt)
	assert.Equal(t, "b", exhausted.Failures[2].ProviderID)
	assert.ErrorContains(t, err, "boom")
}

func TestRouterFailureOpensCircuitForLaterSearches(t *testing.T) {
	a := &stubProvider{id: "a", platforms: []string{"upwork"}, err: errors.New("boom")}
	b := &stubProvider{id: "b", platforms: []string{"upwork"}, jobs: []types.RawJob{{Raw: map[string]any{"id": "1"}}}}

	health := NewMemoryHealthStore(HealthConfig{DisableAfterFailures: 2, DisableFor: time.Hour})
	r := NewRouter([]Provider{a, b}, health, noopLimiter{}, RouterConfig{MaxAttempts: 2})
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	_, err := r.Search(context.Background(), "upwork", plan("golang"))
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls)

	// The two failures opened a's circuit; the next search goes straight
	// to b.
	_, err = r.Search(context.Background(), "upwork", plan("golang"))
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, b.calls)
}

func TestRouterNoProvider(t *testing.T) {
	other := &stubProvider{id: "a", platforms: []string{"linkedin"}}
	r := newTestRouter([]Provider{other}, RouterConfig{})

	_, err := r.Search(context.Background(), "upwork", plan("golang"))

	var noProvider *NoProviderError
	require.ErrorAs(t, err, &noProvider)
	assert.Equal(t, "upwork", noProvider.Platform)
	assert.Zero(t, other.calls)
}

func TestRouterTimeoutBoundsBlockedProvider(t *testing.T) {
	blocked := &stubProvider{id: "a", platforms: []string{"upwork"}, block: true}
	r := newTestRouter([]Provider{blocked}, RouterConfig{MaxAttempts: 1})

	start := time.Now()
	_, err := r.Search(context.Background(), "upwork", plan("golang"), WithTimeout(30*time.Millisecond))
	elapsed := time.Since(start)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Failures, 1)
	assert.ErrorIs(t, exhausted.Failures[0].Err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestRouterWithMaxAttempts(t *testing.T) {
	failing := &stubProvider{id: "a", platforms: []string{"upwork"}, err: errors.New("boom")}
	r := newTestRouter([]Provider{failing}, RouterConfig{MaxAttempts: 3})

	_, err := r.Search(context.Background(), "upwork", plan("golang"), WithMaxAttempts(1))
	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
}
