package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/gigfeed/internal/types"
)

// maxBulkRows caps how many rows go into one multi-VALUES statement. Keeps
// the parameter count well under the PostgreSQL limit of 65535.
const maxBulkRows = 500

// BatchInput is everything one ingestion run wants persisted atomically.
type BatchInput struct {
	TeamID     string
	AgentRunID uuid.UUID
	Sources    []types.JobSource
	Jobs       []types.CanonicalJob
	Rankings   []types.JobRanking
}

// BatchResult reports what a batch write touched.
type BatchResult struct {
	SourcesUpserted int
	JobsUpserted    int
	RankingsWritten int
}

// WriteBatch persists sources, jobs, and rankings in a single transaction.
// Upserts are idempotent: re-running the same batch changes no row counts
// beyond refreshed timestamps. Rankings for the run are replaced wholesale.
//
// The fast path uses multi-VALUES statements; when that fails for a reason
// a smaller statement could survive, each chunk is retried row by row so
// one bad row cannot sink the whole batch.
func (db *DB) WriteBatch(ctx context.Context, input BatchInput) (*BatchResult, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	result := &BatchResult{}

	if result.SourcesUpserted, err = upsertSources(ctx, tx, input.TeamID, input.Sources); err != nil {
		return nil, err
	}
	if result.JobsUpserted, err = upsertJobs(ctx, tx, input.TeamID, input.Jobs); err != nil {
		return nil, err
	}
	if result.RankingsWritten, err = replaceRankings(ctx, tx, input.TeamID, input.AgentRunID, input.Rankings); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

const sourceColumns = 6

func upsertSources(ctx context.Context, tx pgx.Tx, teamID string, sources []types.JobSource) (int, error) {
	upserted := 0
	for _, chunk := range chunkSources(sources, maxBulkRows) {
		sql, args, err := buildSourcesSQL(teamID, chunk)
		if err != nil {
			return upserted, err
		}

		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if !isBulkPathError(err) {
				return upserted, fmt.Errorf("failed to upsert job sources: %w", err)
			}
			// Retry the chunk one row at a time.
			for _, src := range chunk {
				rowSQL, rowArgs, err := buildSourcesSQL(teamID, []types.JobSource{src})
				if err != nil {
					return upserted, err
				}
				if _, err := tx.Exec(ctx, rowSQL, rowArgs...); err != nil {
					return upserted, fmt.Errorf("failed to upsert job source %s/%s: %w",
						src.Platform, src.PlatformJobID, err)
				}
				upserted++
			}
			continue
		}
		upserted += len(chunk)
	}
	return upserted, nil
}

func buildSourcesSQL(teamID string, sources []types.JobSource) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO job_sources (team_id, platform, platform_job_id, url, raw_payload, fetched_at) VALUES `)

	args := make([]any, 0, len(sources)*sourceColumns)
	for i, src := range sources {
		if i > 0 {
			sb.WriteString(", ")
		}
		writePlaceholders(&sb, i*sourceColumns, sourceColumns)

		payload, err := json.Marshal(src.RawPayload)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal raw payload for %s/%s: %w",
				src.Platform, src.PlatformJobID, err)
		}
		args = append(args, teamID, src.Platform, src.PlatformJobID, src.URL, payload, src.FetchedAt)
	}

	sb.WriteString(` ON CONFLICT (team_id, platform, platform_job_id) DO UPDATE SET
		url = EXCLUDED.url,
		raw_payload = EXCLUDED.raw_payload,
		fetched_at = EXCLUDED.fetched_at,
		updated_at = NOW()`)

	return sb.String(), args, nil
}

const jobColumns = 19

func upsertJobs(ctx context.Context, tx pgx.Tx, teamID string, jobs []types.CanonicalJob) (int, error) {
	upserted := 0
	for _, chunk := range chunkJobs(jobs, maxBulkRows) {
		sql, args := buildJobsSQL(teamID, chunk)

		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if !isBulkPathError(err) {
				return upserted, fmt.Errorf("failed to upsert jobs: %w", err)
			}
			for _, job := range chunk {
				rowSQL, rowArgs := buildJobsSQL(teamID, []types.CanonicalJob{job})
				if _, err := tx.Exec(ctx, rowSQL, rowArgs...); err != nil {
					return upserted, fmt.Errorf("failed to upsert job %s: %w", job.CanonicalHash, err)
				}
				upserted++
			}
			continue
		}
		upserted += len(chunk)
	}
	return upserted, nil
}

func buildJobsSQL(teamID string, jobs []types.CanonicalJob) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO jobs (team_id, canonical_hash, platform, platform_job_id,
		title, description, apply_url, posted_at, fetched_at,
		budget_type, hourly_min, hourly_max, fixed_budget_min, fixed_budget_max,
		currency, client_country, skills, seniority, category) VALUES `)

	args := make([]any, 0, len(jobs)*jobColumns)
	for i, job := range jobs {
		if i > 0 {
			sb.WriteString(", ")
		}
		writePlaceholders(&sb, i*jobColumns, jobColumns)
		args = append(args,
			teamID, job.CanonicalHash, job.Platform, job.PlatformJobID,
			job.Title, job.Description, job.ApplyURL, job.PostedAt, job.FetchedAt,
			job.BudgetType, job.HourlyMin, job.HourlyMax, job.FixedBudgetMin, job.FixedBudgetMax,
			job.Currency, job.ClientCountry, job.Skills, job.Seniority, job.Category,
		)
	}

	sb.WriteString(` ON CONFLICT (team_id, canonical_hash) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		apply_url = EXCLUDED.apply_url,
		posted_at = EXCLUDED.posted_at,
		fetched_at = EXCLUDED.fetched_at,
		budget_type = EXCLUDED.budget_type,
		hourly_min = EXCLUDED.hourly_min,
		hourly_max = EXCLUDED.hourly_max,
		fixed_budget_min = EXCLUDED.fixed_budget_min,
		fixed_budget_max = EXCLUDED.fixed_budget_max,
		currency = EXCLUDED.currency,
		client_country = EXCLUDED.client_country,
		skills = EXCLUDED.skills,
		seniority = EXCLUDED.seniority,
		category = EXCLUDED.category,
		updated_at = NOW()`)

	return sb.String(), args
}

// replaceRankings deletes the run's previous rankings and inserts the new
// set. Hashes that match no persisted job are dropped silently; rankings
// are advisory and must not fail the batch.
func replaceRankings(ctx context.Context, tx pgx.Tx, teamID string, runID uuid.UUID, rankings []types.JobRanking) (int, error) {
	if _, err := tx.Exec(ctx,
		`DELETE FROM job_rankings WHERE team_id = $1 AND agent_run_id = $2`,
		teamID, runID,
	); err != nil {
		return 0, fmt.Errorf("failed to clear rankings: %w", err)
	}

	if len(rankings) == 0 {
		return 0, nil
	}

	hashes := make([]string, 0, len(rankings))
	for _, r := range rankings {
		hashes = append(hashes, r.CanonicalHash)
	}

	rows, err := tx.Query(ctx,
		`SELECT id, canonical_hash FROM jobs WHERE team_id = $1 AND canonical_hash = ANY($2)`,
		teamID, hashes,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve job ids for rankings: %w", err)
	}
	defer rows.Close()

	jobIDs := make(map[string]uuid.UUID, len(rankings))
	for rows.Next() {
		var id uuid.UUID
		var hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return 0, fmt.Errorf("failed to scan job id: %w", err)
		}
		jobIDs[hash] = id
	}
	rows.Close()

	written := 0
	for _, r := range rankings {
		jobID, ok := jobIDs[r.CanonicalHash]
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO job_rankings (team_id, agent_run_id, job_id, score, reason)
			 VALUES ($1, $2, $3, $4, $5)`,
			teamID, runID, jobID, r.Score, r.Reason,
		); err != nil {
			return written, fmt.Errorf("failed to insert ranking for %s: %w", r.CanonicalHash, err)
		}
		written++
	}
	return written, nil
}

// writePlaceholders appends "($n, $n+1, ...)" starting after offset.
func writePlaceholders(sb *strings.Builder, offset, count int) {
	sb.WriteString("(")
	for c := 0; c < count; c++ {
		if c > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "$%d", offset+c+1)
	}
	sb.WriteString(")")
}

// isBulkPathError reports whether the error is specific to the multi-row
// statement shape, where retrying rows individually can still succeed.
// Constraint violations and connection failures are not retryable this way.
func isBulkPathError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "42", "54", "08":
			return true
		}
	}
	return strings.Contains(err.Error(), "65535 parameters")
}

func chunkSources(sources []types.JobSource, size int) [][]types.JobSource {
	var chunks [][]types.JobSource
	for start := 0; start < len(sources); start += size {
		end := start + size
		if end > len(sources) {
			end = len(sources)
		}
		chunks = append(chunks, sources[start:end])
	}
	return chunks
}

func chunkJobs(jobs []types.CanonicalJob, size int) [][]types.CanonicalJob {
	var chunks [][]types.CanonicalJob
	for start := 0; start < len(jobs); start += size {
		end := start + size
		if end > len(jobs) {
			end = len(jobs)
		}
		chunks = append(chunks, jobs[start:end])
	}
	return chunks
}
