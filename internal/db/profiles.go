package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/gigfeed/internal/types"
)

// ListRawProfiles retrieves all stored raw profiles for a team
func (db *DB) ListRawProfiles(ctx context.Context, teamID string) ([]RawProfileRow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, team_id, payload, updated_at
		 FROM raw_profiles WHERE team_id = $1
		 ORDER BY updated_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw profiles: %w", err)
	}
	defer rows.Close()

	var profiles []RawProfileRow
	for rows.Next() {
		var p RawProfileRow
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Payload, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan raw profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// GetRawProfile retrieves a team's raw profile, nil when none is stored
func (db *DB) GetRawProfile(ctx context.Context, teamID string) (*RawProfileRow, error) {
	var p RawProfileRow
	err := db.pool.QueryRow(ctx,
		`SELECT id, team_id, payload, updated_at
		 FROM raw_profiles WHERE team_id = $1
		 ORDER BY updated_at DESC LIMIT 1`,
		teamID,
	).Scan(&p.ID, &p.TeamID, &p.Payload, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get raw profile: %w", err)
	}
	return &p, nil
}

// UpsertNormalizedProfile stores the normalized projection for a team,
// replacing any previous one
func (db *DB) UpsertNormalizedProfile(ctx context.Context, teamID string, profile types.NormalizedProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal normalized profile: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO normalized_profiles (team_id, payload, normalized_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (team_id) DO UPDATE SET
		     payload = EXCLUDED.payload,
		     normalized_at = EXCLUDED.normalized_at,
		     updated_at = NOW()`,
		teamID, payload, profile.NormalizedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert normalized profile: %w", err)
	}
	return nil
}

// GetNormalizedProfile retrieves the stored normalized profile for a team,
// nil when the team has none
func (db *DB) GetNormalizedProfile(ctx context.Context, teamID string) (*types.NormalizedProfile, error) {
	var payload []byte
	err := db.pool.QueryRow(ctx,
		`SELECT payload FROM normalized_profiles WHERE team_id = $1`,
		teamID,
	).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get normalized profile: %w", err)
	}

	var profile types.NormalizedProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal normalized profile: %w", err)
	}
	return &profile, nil
}
