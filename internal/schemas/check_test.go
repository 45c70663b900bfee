package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlueprint_Valid(t *testing.T) {
	doc := `{
		"id": "loyalty-plus",
		"name": "Loyalty Plus",
		"description": "Points",
		"database": {"new_tables": [{"name": "loyalty_tiers", "columns": ["id UUID PRIMARY KEY"]}]},
		"api_routes": [{"path": "/api/loyalty/route", "method": "GET"}]
	}`
	assert.NoError(t, Blueprint([]byte(doc)))
}

func TestBlueprint_MissingKeysAreNotViolations(t *testing.T) {
	assert.NoError(t, Blueprint([]byte(`{}`)))
}

func TestBlueprint_WrongTypes(t *testing.T) {
	doc := `{
		"id": 42,
		"database": {"new_tables": [{"name": "t", "columns": "id UUID"}]}
	}`
	err := Blueprint([]byte(doc))

	var violations *ViolationError
	require.ErrorAs(t, err, &violations)
	assert.Equal(t, "blueprint.schema.json", violations.Schema)

	fields := make([]string, 0, len(violations.Errors))
	for _, fe := range violations.Errors {
		fields = append(fields, fe.Field)
		assert.NotEmpty(t, fe.Rule)
	}
	assert.Equal(t, []string{"database.new_tables[0].columns", "id"}, fields)
	assert.Contains(t, err.Error(), "2 violation(s)")
	assert.Contains(t, err.Error(), "\n  id: ")
}

func TestBlueprint_NotJSON(t *testing.T) {
	err := Blueprint([]byte(`{not json`))
	require.Error(t, err)

	var violations *ViolationError
	assert.NotErrorAs(t, err, &violations)
}

func TestCheck_UnknownSchema(t *testing.T) {
	err := Check("missing.schema.json", []byte(`{}`))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "missing.schema.json", loadErr.Schema)
}

func TestFieldPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "(root)"},
		{"(root)", "(root)"},
		{"id", "id"},
		{"database.new_tables.0.columns", "database.new_tables[0].columns"},
		{"routes.12", "routes[12]"},
		{"components.0.dependencies.3", "components[0].dependencies[3]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fieldPath(tt.in), tt.in)
	}
}
