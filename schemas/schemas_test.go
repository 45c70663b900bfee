package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/schemas"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	entries, err := schemas.FS.ReadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		t.Run(entry.Name(), func(t *testing.T) {
			data, err := schemas.FS.ReadFile(entry.Name())
			require.NoError(t, err, "should be able to read schema file")

			var schemaObj map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &schemaObj), "schema file should be valid JSON")

			_, hasType := schemaObj["type"]
			_, hasSchema := schemaObj["$schema"]
			_, hasProps := schemaObj["properties"]
			assert.True(t, hasType && hasSchema && hasProps,
				"schema should declare type, $schema and properties")
		})
	}
}

func TestBlueprintSchema_DoesNotRequireKeys(t *testing.T) {
	data, err := schemas.FS.ReadFile(schemas.Blueprint)
	require.NoError(t, err)

	var schemaObj map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &schemaObj))

	_, hasRequired := schemaObj["required"]
	assert.False(t, hasRequired, "required keys are reported by the validator, not the schema")
}
