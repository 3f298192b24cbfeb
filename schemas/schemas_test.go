package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gigfeed/internal/schemas"
)

func TestQueryPlanSchema_ValidJSON(t *testing.T) {
	data, err := os.ReadFile("query_plan.schema.json")
	require.NoError(t, err, "should be able to read schema file")

	var schemaObj map[string]interface{}
	err = json.Unmarshal(data, &schemaObj)
	require.NoError(t, err, "schema file should be valid JSON")

	_, hasType := schemaObj["type"]
	_, hasSchema := schemaObj["$schema"]
	_, hasProps := schemaObj["properties"]
	assert.True(t, hasType && hasSchema && hasProps,
		"schema should declare type, $schema, and properties")
}

func TestQueryPlanSchema_AcceptsValidPlan(t *testing.T) {
	schema, err := os.ReadFile("query_plan.schema.json")
	require.NoError(t, err)

	plan := `{
		"team_id": "team-1",
		"queries": [
			{
				"platform": "upwork",
				"plan": {
					"keywords": ["golang", "backend"],
					"filters": {"location": "Berlin, Germany", "remote": true, "budget_min": 40},
					"paging": {"page": 0, "per_page": 50}
				},
				"timeout_ms": 15000
			},
			{
				"platform": "linkedin",
				"plan": {"keywords": ["site reliability"]}
			}
		]
	}`

	assert.NoError(t, schemas.ValidateJSONString(string(schema), plan))
}

func TestQueryPlanSchema_RejectsInvalidPlans(t *testing.T) {
	schema, err := os.ReadFile("query_plan.schema.json")
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  string
	}{
		{"missing team_id", `{"queries": [{"platform": "upwork", "plan": {"keywords": ["go"]}}]}`},
		{"empty queries", `{"team_id": "t", "queries": []}`},
		{"missing keywords", `{"team_id": "t", "queries": [{"platform": "upwork", "plan": {}}]}`},
		{"empty keyword", `{"team_id": "t", "queries": [{"platform": "upwork", "plan": {"keywords": [""]}}]}`},
		{"negative timeout", `{"team_id": "t", "queries": [{"platform": "upwork", "plan": {"keywords": ["go"]}, "timeout_ms": -1}]}`},
		{"per_page over limit", `{"team_id": "t", "queries": [{"platform": "upwork", "plan": {"keywords": ["go"], "paging": {"per_page": 500}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(string(schema), tt.doc)
			require.Error(t, err)

			var ve *schemas.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}
