package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateAgentRun inserts a new running agent run and returns its ID
func (db *DB) CreateAgentRun(ctx context.Context, teamID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO agent_runs (team_id, status)
		 VALUES ($1, 'running')
		 RETURNING id`,
		teamID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create agent run: %w", err)
	}
	return id, nil
}

// CompleteAgentRun finalizes a run with its status, counters, and an
// optional error message
func (db *DB) CompleteAgentRun(ctx context.Context, runID uuid.UUID, status string, jobsFound, jobsSkipped int, errMsg string) error {
	var errText *string
	if errMsg != "" {
		errText = &errMsg
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE agent_runs
		 SET status = $1, jobs_found = $2, jobs_skipped = $3, error = $4, completed_at = NOW()
		 WHERE id = $5`,
		status, jobsFound, jobsSkipped, errText, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete agent run: %w", err)
	}
	return nil
}

// GetAgentRun retrieves a run by ID, nil when not found
func (db *DB) GetAgentRun(ctx context.Context, runID uuid.UUID) (*AgentRun, error) {
	var run AgentRun
	err := db.pool.QueryRow(ctx,
		`SELECT id, team_id, status, jobs_found, jobs_skipped, error, started_at, completed_at
		 FROM agent_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.TeamID, &run.Status, &run.JobsFound, &run.JobsSkipped,
		&run.Error, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent run: %w", err)
	}
	return &run, nil
}

// ListAgentRuns retrieves recent runs for a team
func (db *DB) ListAgentRuns(ctx context.Context, teamID string, limit int) ([]AgentRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, team_id, status, jobs_found, jobs_skipped, error, started_at, completed_at
		 FROM agent_runs WHERE team_id = $1
		 ORDER BY started_at DESC LIMIT $2`,
		teamID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent runs: %w", err)
	}
	defer rows.Close()

	var runs []AgentRun
	for rows.Next() {
		var run AgentRun
		if err := rows.Scan(&run.ID, &run.TeamID, &run.Status, &run.JobsFound, &run.JobsSkipped,
			&run.Error, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
