package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gigfeed/internal/db"
	"github.com/jonathan/gigfeed/internal/provider"
	"github.com/jonathan/gigfeed/internal/types"
)

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]types.RawJob
	errs    map[string]error
	calls   []string
}

func (f *fakeSearcher) Search(_ context.Context, platform string, _ types.QueryPlan, _ ...provider.SearchOption) ([]types.RawJob, error) {
	f.mu.Lock()
	f.calls = append(f.calls, platform)
	f.mu.Unlock()

	if err, ok := f.errs[platform]; ok {
		return nil, err
	}
	return f.results[platform], nil
}

type fakeRunStore struct {
	runID        uuid.UUID
	createErr    error
	completed    bool
	finalStatus  string
	finalFound   int
	finalSkipped int
	finalErrMsg  string
}

func (f *fakeRunStore) CreateAgentRun(context.Context, string) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	if f.runID == uuid.Nil {
		f.runID = uuid.New()
	}
	return f.runID, nil
}

func (f *fakeRunStore) CompleteAgentRun(_ context.Context, _ uuid.UUID, status string, found, skipped int, errMsg string) error {
	f.completed = true
	f.finalStatus = status
	f.finalFound = found
	f.finalSkipped = skipped
	f.finalErrMsg = errMsg
	return nil
}

type fakeWriter struct {
	input *db.BatchInput
	err   error
}

func (f *fakeWriter) WriteBatch(_ context.Context, input db.BatchInput) (*db.BatchResult, error) {
	f.input = &input
	if f.err != nil {
		return nil, f.err
	}
	return &db.BatchResult{
		SourcesUpserted: len(input.Sources),
		JobsUpserted:    len(input.Jobs),
		RankingsWritten: len(input.Rankings),
	}, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []RunSummary
	err       error
}

func (f *fakeNotifier) PublishRunCompleted(_ context.Context, s RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s)
	return f.err
}

func rawJob(platform, id, title string) types.RawJob {
	return types.RawJob{
		Platform: platform,
		Raw: map[string]any{
			"id":    id,
			"title": title,
			"url":   "https://example.com/jobs/" + id,
		},
	}
}

func somePlans() []types.PlannedQuery {
	return []types.PlannedQuery{
		{Platform: "upwork", Plan: types.QueryPlan{Keywords: []string{"golang"}}},
		{Platform: "linkedin", Plan: types.QueryPlan{Keywords: []string{"backend"}}},
	}
}

func TestTaskRunHappyPath(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]types.RawJob{
		"upwork":   {rawJob("upwork", "u1", "Go developer"), rawJob("upwork", "u2", "Backend engineer")},
		"linkedin": {rawJob("linkedin", "l1", "SRE")},
	}}
	runs := &fakeRunStore{}
	writer := &fakeWriter{}
	notifier := &fakeNotifier{}

	task := NewTask(searcher, runs, writer, WithNotifier(notifier))
	summary, err := task.Run(context.Background(), "team-1", somePlans())

	require.NoError(t, err)
	assert.Equal(t, db.RunStatusCompleted, summary.Status)
	assert.Equal(t, 3, summary.JobsFound)
	assert.Equal(t, 0, summary.JobsSkipped)
	assert.Equal(t, 0, summary.PlansFailed)

	require.NotNil(t, writer.input)
	assert.Equal(t, "team-1", writer.input.TeamID)
	assert.Equal(t, runs.runID, writer.input.AgentRunID)
	assert.Len(t, writer.input.Jobs, 3)
	assert.Len(t, writer.input.Sources, 3)

	assert.True(t, runs.completed)
	assert.Equal(t, db.RunStatusCompleted, runs.finalStatus)
	assert.Equal(t, 3, runs.finalFound)

	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, summary.RunID, notifier.summaries[0].RunID)
}

func TestTaskRunPartialPlanFailure(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]types.RawJob{
			"upwork": {rawJob("upwork", "u1", "Go developer")},
		},
		errs: map[string]error{
			"linkedin": &provider.ExhaustedError{Platform: "linkedin"},
		},
	}
	runs := &fakeRunStore{}
	writer := &fakeWriter{}

	task := NewTask(searcher, runs, writer)
	summary, err := task.Run(context.Background(), "team-1", somePlans())

	require.NoError(t, err, "one surviving plan keeps the run alive")
	assert.Equal(t, db.RunStatusCompleted, summary.Status)
	assert.Equal(t, 1, summary.JobsFound)
	assert.Equal(t, 1, summary.PlansFailed)
}

func TestTaskRunAllPlansFailed(t *testing.T) {
	searcher := &fakeSearcher{errs: map[string]error{
		"upwork":   &provider.ExhaustedError{Platform: "upwork"},
		"linkedin": errors.New("connection refused"),
	}}
	runs := &fakeRunStore{}
	writer := &fakeWriter{}
	notifier := &fakeNotifier{}

	task := NewTask(searcher, runs, writer, WithNotifier(notifier))
	summary, err := task.Run(context.Background(), "team-1", somePlans())

	require.Error(t, err)
	assert.ErrorContains(t, err, "all 2 planned queries failed")
	assert.Equal(t, db.RunStatusFailed, summary.Status)
	assert.Equal(t, 2, summary.PlansFailed)

	assert.Nil(t, writer.input, "nothing should be persisted")
	assert.Equal(t, db.RunStatusFailed, runs.finalStatus)
	assert.Contains(t, runs.finalErrMsg, "planned queries failed")

	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, db.RunStatusFailed, notifier.summaries[0].Status)
}

func TestTaskRunPersistenceFailure(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]types.RawJob{
		"upwork":   {rawJob("upwork", "u1", "Go developer")},
		"linkedin": nil,
	}}
	runs := &fakeRunStore{}
	writer := &fakeWriter{err: errors.New("deadlock detected")}

	task := NewTask(searcher, runs, writer)
	_, err := task.Run(context.Background(), "team-1", somePlans())

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to persist batch")
	assert.Equal(t, db.RunStatusFailed, runs.finalStatus)
	assert.Contains(t, runs.finalErrMsg, "deadlock detected")
}

func TestTaskRunDeduplicatesAcrossPlans(t *testing.T) {
	// Both plans return the same platform job; the normalizer must collapse
	// them to one canonical row and count one skip.
	dup := rawJob("upwork", "u1", "Go developer")
	searcher := &fakeSearcher{results: map[string][]types.RawJob{
		"upwork":   {dup},
		"linkedin": {dup},
	}}
	runs := &fakeRunStore{}
	writer := &fakeWriter{}

	task := NewTask(searcher, runs, writer)
	summary, err := task.Run(context.Background(), "team-1", somePlans())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.JobsFound)
	assert.Equal(t, 1, summary.JobsSkipped)
}

type fakeRanker struct {
	rankings []types.JobRanking
	err      error
	gotJobs  int
}

func (f *fakeRanker) Rank(_ context.Context, _ *types.NormalizedProfile, jobs []types.CanonicalJob) ([]types.JobRanking, error) {
	f.gotJobs = len(jobs)
	return f.rankings, f.err
}

func TestTaskRunWithRanker(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]types.RawJob{
		"upwork":   {rawJob("upwork", "u1", "Go developer")},
		"linkedin": nil,
	}}
	runs := &fakeRunStore{}
	writer := &fakeWriter{}
	ranker := &fakeRanker{rankings: []types.JobRanking{{CanonicalHash: "abc", Score: 0.9}}}

	task := NewTask(searcher, runs, writer, WithRanker(ranker, &types.NormalizedProfile{}))
	_, err := task.Run(context.Background(), "team-1", somePlans())

	require.NoError(t, err)
	assert.Equal(t, 1, ranker.gotJobs)
	require.NotNil(t, writer.input)
	assert.Len(t, writer.input.Rankings, 1)
}

func TestTaskRunRankerFailureIsNonFatal(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]types.RawJob{
		"upwork":   {rawJob("upwork", "u1", "Go developer")},
		"linkedin": nil,
	}}
	runs := &fakeRunStore{}
	writer := &fakeWriter{}
	ranker := &fakeRanker{err: errors.New("model unavailable")}

	task := NewTask(searcher, runs, writer, WithRanker(ranker, &types.NormalizedProfile{}))
	summary, err := task.Run(context.Background(), "team-1", somePlans())

	require.NoError(t, err)
	assert.Equal(t, db.RunStatusCompleted, summary.Status)
	require.NotNil(t, writer.input)
	assert.Empty(t, writer.input.Rankings)
}

func TestTaskRunNoPlans(t *testing.T) {
	task := NewTask(&fakeSearcher{}, &fakeRunStore{}, &fakeWriter{})
	_, err := task.Run(context.Background(), "team-1", nil)
	assert.ErrorContains(t, err, "no planned queries")
}

func TestTaskRunStartFailure(t *testing.T) {
	runs := &fakeRunStore{createErr: errors.New("connection refused")}
	task := NewTask(&fakeSearcher{}, runs, &fakeWriter{})
	_, err := task.Run(context.Background(), "team-1", somePlans())
	assert.ErrorContains(t, err, "failed to start run")
}
