// Package ingest runs the end-to-end ingestion pipeline: planned queries
// through provider search, normalization, and persistence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/gigfeed/internal/db"
	"github.com/jonathan/gigfeed/internal/normalize"
	"github.com/jonathan/gigfeed/internal/provider"
	"github.com/jonathan/gigfeed/internal/types"
)

// DefaultConcurrency bounds how many planned queries run at once.
const DefaultConcurrency = 4

// Searcher finds raw jobs for one platform query. *provider.Router
// satisfies this.
type Searcher interface {
	Search(ctx context.Context, platform string, plan types.QueryPlan, opts ...provider.SearchOption) ([]types.RawJob, error)
}

// RunStore records run lifecycle. *db.DB satisfies this.
type RunStore interface {
	CreateAgentRun(ctx context.Context, teamID string) (uuid.UUID, error)
	CompleteAgentRun(ctx context.Context, runID uuid.UUID, status string, jobsFound, jobsSkipped int, errMsg string) error
}

// BatchWriter persists one run's normalized output. *db.DB satisfies this.
type BatchWriter interface {
	WriteBatch(ctx context.Context, input db.BatchInput) (*db.BatchResult, error)
}

// Ranker scores canonical jobs against a normalized profile. Optional.
type Ranker interface {
	Rank(ctx context.Context, profile *types.NormalizedProfile, jobs []types.CanonicalJob) ([]types.JobRanking, error)
}

// Notifier announces completed runs. Optional; failures are logged, never
// fatal.
type Notifier interface {
	PublishRunCompleted(ctx context.Context, summary RunSummary) error
}

// RunSummary is the outcome of one ingestion run.
type RunSummary struct {
	RunID       uuid.UUID     `json:"run_id"`
	TeamID      string        `json:"team_id"`
	Status      string        `json:"status"`
	JobsFound   int           `json:"jobs_found"`
	JobsSkipped int           `json:"jobs_skipped"`
	PlansFailed int           `json:"plans_failed"`
	Duration    time.Duration `json:"duration"`
}

// Task wires the ingestion collaborators together.
type Task struct {
	searcher    Searcher
	runs        RunStore
	writer      BatchWriter
	normalizer  *normalize.JobNormalizer
	ranker      Ranker
	notifier    Notifier
	profile     *types.NormalizedProfile
	concurrency int
	verbose     bool
	now         func() time.Time
}

// TaskOption configures optional task collaborators.
type TaskOption func(*Task)

// WithRanker attaches a ranking collaborator and the profile it scores
// against.
func WithRanker(r Ranker, profile *types.NormalizedProfile) TaskOption {
	return func(t *Task) {
		t.ranker = r
		t.profile = profile
	}
}

// WithNotifier attaches a run-completion notifier.
func WithNotifier(n Notifier) TaskOption {
	return func(t *Task) { t.notifier = n }
}

// WithConcurrency overrides the planned-query parallelism.
func WithConcurrency(n int) TaskOption {
	return func(t *Task) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// WithVerbose enables per-plan progress logging.
func WithVerbose(verbose bool) TaskOption {
	return func(t *Task) { t.verbose = verbose }
}

// NewTask creates an ingestion task.
func NewTask(searcher Searcher, runs RunStore, writer BatchWriter, opts ...TaskOption) *Task {
	t := &Task{
		searcher:    searcher,
		runs:        runs,
		writer:      writer,
		normalizer:  normalize.NewJobNormalizer(),
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run executes one ingestion run for a team: searches every planned query,
// normalizes the union of results, persists the batch, and finalizes the
// run record. A plan whose providers are exhausted is counted and skipped;
// the run fails only when every plan fails or persistence fails.
func (t *Task) Run(ctx context.Context, teamID string, plans []types.PlannedQuery) (*RunSummary, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("no planned queries for team %s", teamID)
	}

	started := t.now()
	runID, err := t.runs.CreateAgentRun(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	raws, plansFailed := t.searchAll(ctx, plans)
	if plansFailed == len(plans) {
		return t.fail(ctx, runID, teamID, started, plansFailed,
			fmt.Errorf("all %d planned queries failed", len(plans)))
	}
	if err := ctx.Err(); err != nil {
		return t.fail(ctx, runID, teamID, started, plansFailed, err)
	}

	batch := t.normalizer.NormalizeBatch(raws, teamID)
	if t.verbose {
		log.Printf("[ingest] run %s: %d raw -> %d canonical, %d skipped",
			runID, len(raws), len(batch.Jobs), batch.Skipped)
	}

	var rankings []types.JobRanking
	if t.ranker != nil && len(batch.Jobs) > 0 {
		rankings, err = t.ranker.Rank(ctx, t.profile, batch.Jobs)
		if err != nil {
			// Rankings are advisory. Persist the batch without them.
			log.Printf("[ingest] run %s: ranking failed: %v", runID, err)
			rankings = nil
		}
	}

	result, err := t.writer.WriteBatch(ctx, db.BatchInput{
		TeamID:     teamID,
		AgentRunID: runID,
		Sources:    batch.Sources,
		Jobs:       batch.Jobs,
		Rankings:   rankings,
	})
	if err != nil {
		return t.fail(ctx, runID, teamID, started, plansFailed, fmt.Errorf("failed to persist batch: %w", err))
	}

	summary := &RunSummary{
		RunID:       runID,
		TeamID:      teamID,
		Status:      db.RunStatusCompleted,
		JobsFound:   result.JobsUpserted,
		JobsSkipped: batch.Skipped,
		PlansFailed: plansFailed,
		Duration:    t.now().Sub(started),
	}

	if err := t.runs.CompleteAgentRun(ctx, runID, db.RunStatusCompleted,
		summary.JobsFound, summary.JobsSkipped, ""); err != nil {
		return nil, fmt.Errorf("failed to finalize run: %w", err)
	}

	t.notify(ctx, summary)
	return summary, nil
}

// searchAll runs every planned query with bounded parallelism, collecting
// results and counting failed plans. Individual plan failures never abort
// the group.
func (t *Task) searchAll(ctx context.Context, plans []types.PlannedQuery) ([]types.RawJob, int) {
	var mu sync.Mutex
	var raws []types.RawJob
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for _, plan := range plans {
		plan := plan
		g.Go(func() error {
			var opts []provider.SearchOption
			if plan.TimeoutMs > 0 {
				opts = append(opts, provider.WithTimeout(time.Duration(plan.TimeoutMs)*time.Millisecond))
			}

			jobs, err := t.searcher.Search(gctx, plan.Platform, plan.Plan, opts...)
			if err != nil {
				var exhausted *provider.ExhaustedError
				if errors.As(err, &exhausted) {
					log.Printf("[ingest] %s: %v", plan.Platform, exhausted)
				} else {
					log.Printf("[ingest] %s: search failed: %v", plan.Platform, err)
				}
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			if t.verbose {
				log.Printf("[ingest] %s: %d raw jobs", plan.Platform, len(jobs))
			}
			mu.Lock()
			raws = append(raws, jobs...)
			mu.Unlock()
			return nil
		})
	}

	// Goroutines only return nil; Wait is for completion.
	_ = g.Wait()
	return raws, failed
}

// fail finalizes the run as failed and surfaces the cause.
func (t *Task) fail(ctx context.Context, runID uuid.UUID, teamID string, started time.Time, plansFailed int, cause error) (*RunSummary, error) {
	if err := t.runs.CompleteAgentRun(ctx, runID, db.RunStatusFailed, 0, 0, cause.Error()); err != nil {
		log.Printf("[ingest] run %s: failed to record failure: %v", runID, err)
	}

	summary := &RunSummary{
		RunID:       runID,
		TeamID:      teamID,
		Status:      db.RunStatusFailed,
		PlansFailed: plansFailed,
		Duration:    t.now().Sub(started),
	}
	t.notify(ctx, summary)
	return summary, cause
}

func (t *Task) notify(ctx context.Context, summary *RunSummary) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.PublishRunCompleted(ctx, *summary); err != nil {
		log.Printf("[ingest] run %s: notify failed: %v", summary.RunID, err)
	}
}
