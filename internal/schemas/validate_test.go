package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["platform"],
	"properties": {
		"platform": {"type": "string", "minLength": 1}
	}
}`

func TestValidateJSONString(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		err := ValidateJSONString(testSchema, `{"platform": "upwork"}`)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateJSONString(testSchema, `{}`)
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Len(t, ve.Errors, 1)
		assert.Equal(t, "(root)", ve.Errors[0].Field)
	})

	t.Run("broken schema", func(t *testing.T) {
		err := ValidateJSONString(`{"type": 42}`, `{}`)
		require.Error(t, err)

		var le *SchemaLoadError
		assert.ErrorAs(t, err, &le)
	})
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	docPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))
	require.NoError(t, os.WriteFile(docPath, []byte(`{"platform": "upwork"}`), 0o644))

	assert.NoError(t, ValidateJSON(schemaPath, docPath))

	t.Run("missing document", func(t *testing.T) {
		err := ValidateJSON(schemaPath, filepath.Join(dir, "nope.json"))
		assert.ErrorContains(t, err, "JSON file not found")
	})
}

func TestResolveSchemaPath(t *testing.T) {
	// The real schema lives two levels up from this package.
	path := ResolveSchemaPath(QueryPlanSchemaFile)
	assert.NotEmpty(t, path)

	assert.Empty(t, ResolveSchemaPath("schemas/does_not_exist.schema.json"))
}
