package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/gigfeed/internal/schemas"
	"github.com/jonathan/gigfeed/internal/types"
)

// PlanFile is the on-disk shape of a query plan file: the team it belongs
// to plus the queries one run executes.
type PlanFile struct {
	TeamID  string               `json:"team_id" validate:"required"`
	Queries []types.PlannedQuery `json:"queries" validate:"required,min=1,dive"`
}

var planValidator = validator.New()

// LoadPlanFile reads, schema-validates, and parses a query plan file.
func LoadPlanFile(path string) (*PlanFile, error) {
	if err := schemas.ValidateQueryPlanFile(path); err != nil {
		return nil, fmt.Errorf("query plan %s is invalid: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query plan %s: %w", path, err)
	}

	var plan PlanFile
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse query plan %s: %w", path, err)
	}

	// Struct-level validation backs up the schema for programmatic callers
	// that construct plans without going through a file.
	if err := planValidator.Struct(&plan); err != nil {
		return nil, fmt.Errorf("query plan %s failed validation: %w", path, err)
	}

	return &plan, nil
}
