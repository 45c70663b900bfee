package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/blueprint"
)

const loyaltyPlus = `{
	"id": "loyalty-plus",
	"name": "Loyalty Plus",
	"description": "Points and tiers for repeat customers",
	"database": {
		"new_tables": [
			{
				"name": "loyalty_tiers",
				"columns": [
					"id UUID PRIMARY KEY",
					"organization_id UUID NOT NULL",
					"name TEXT NOT NULL",
					"min_points INTEGER DEFAULT 0"
				]
			}
		]
	}
}`

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func validate(t *testing.T, doc string) *Result {
	t.Helper()
	return newValidator(t).ValidateBytes([]byte(doc), blueprint.FormatJSON)
}

func hasMessage(list []string, substr string) bool {
	for _, msg := range list {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidate_ValidBlueprint(t *testing.T) {
	result := validate(t, loyaltyPlus)

	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	require.NotNil(t, result.Blueprint)
	assert.Equal(t, "loyalty-plus", result.Blueprint.ID)
	assert.NoError(t, result.Err())
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	for _, field := range requiredFields {
		t.Run(field, func(t *testing.T) {
			doc := map[string]string{
				"id":          `"id": "x"`,
				"name":        `"name": "X"`,
				"description": `"description": "d"`,
				"database":    `"database": {"new_tables": [{"name": "t", "columns": ["id UUID"]}]}`,
			}
			delete(doc, field)
			parts := make([]string, 0, len(doc))
			for _, p := range doc {
				parts = append(parts, p)
			}
			result := validate(t, "{"+strings.Join(parts, ",")+"}")

			assert.False(t, result.Valid)
			assert.True(t, hasMessage(result.Errors, field), "errors should name %q: %v", field, result.Errors)
		})
	}
}

func TestValidate_EmptyStringCountsAsMissing(t *testing.T) {
	result := validate(t, strings.Replace(loyaltyPlus, `"Loyalty Plus"`, `""`, 1))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "missing required field: name")
}

func TestValidate_BadSlug(t *testing.T) {
	result := validate(t, strings.Replace(loyaltyPlus, `"loyalty-plus"`, `"Loyalty_Plus"`, 1))

	assert.False(t, result.Valid)
	assert.True(t, hasMessage(result.Errors, "slug"), "%v", result.Errors)

	var structural *StructuralError
	require.True(t, errors.As(result.Err(), &structural))
	assert.Equal(t, "Loyalty_Plus", structural.BlueprintID)
}

func TestValidate_EmptyTables(t *testing.T) {
	result := validate(t, `{"id": "a", "name": "A", "description": "d", "database": {"new_tables": []}}`)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "database.new_tables must be a non-empty list")
}

func TestValidate_TableRules(t *testing.T) {
	doc := `{"id": "a", "name": "A", "description": "d", "database": {"new_tables": [
		{"name": "Bad-Name", "columns": ["id UUID"]},
		{"name": "empty_cols", "columns": []},
		{"name": "no_cols"},
		{"columns": ["id UUID"]}
	]}}`
	result := validate(t, doc)

	assert.False(t, result.Valid)
	assert.True(t, hasMessage(result.Errors, `"Bad-Name" must match`), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, "table empty_cols: must have at least one column"), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, "database.new_tables[2]: missing required field: columns"), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, "database.new_tables[3]: missing required field: name"), "%v", result.Errors)
}

func TestValidate_MissingColumnTypeIsWarning(t *testing.T) {
	result := validate(t, strings.Replace(loyaltyPlus, `"name TEXT NOT NULL"`, `"nickname"`, 1))

	assert.True(t, result.Valid, "errors: %v", result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "nickname")
}

func TestValidate_OnlyConstraintsIsError(t *testing.T) {
	doc := `{"id": "a", "name": "A", "description": "d", "database": {"new_tables": [
		{"name": "pairs", "columns": ["UNIQUE(a, b)"]}
	]}}`
	result := validate(t, doc)
	assert.False(t, result.Valid)
	assert.True(t, hasMessage(result.Errors, "table pairs: must have at least one column"))
}

func TestValidate_RoutesComponentsAPIRoutes(t *testing.T) {
	doc := `{"id": "a", "name": "A", "description": "d",
		"database": {"new_tables": [{"name": "t", "columns": ["id UUID"]}]},
		"routes": [{"path": "rewards", "component": "RewardsPage"}, {"path": "/ok"}],
		"components": [{"name": "TierCard"}],
		"api_routes": [{"path": "/api/t/route", "method": "FETCH"}, {"method": "GET"}]
	}`
	result := validate(t, doc)

	assert.False(t, result.Valid)
	assert.True(t, hasMessage(result.Errors, `routes[0].path: "rewards" must start with "/"`), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, "routes[1]: missing required field: component"), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, "components[0]: missing required field: path"), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, `api_routes[0].method: "FETCH" must be one of GET/POST/PUT/DELETE/PATCH`), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, "api_routes[1]: missing required field: path"), "%v", result.Errors)
}

func TestValidate_DuplicateNames(t *testing.T) {
	doc := `{"id": "a", "name": "A", "description": "d",
		"database": {"new_tables": [{"name": "t", "columns": ["id UUID"]}, {"name": "T", "columns": ["id UUID"]}]},
		"routes": [{"path": "/x", "component": "X"}, {"path": "/x", "component": "Y"}]
	}`
	result := validate(t, doc)

	assert.False(t, result.Valid)
	assert.True(t, hasMessage(result.Errors, "declared more than once"))
	assert.True(t, hasMessage(result.Errors, "routes: path /x declared more than once"))
}

func TestValidate_SchemaTypeErrors(t *testing.T) {
	result := validate(t, `{"id": 7, "name": "A", "description": "d", "database": {"new_tables": "t"}}`)

	assert.False(t, result.Valid)
	assert.Nil(t, result.Blueprint)
	assert.True(t, hasMessage(result.Errors, "id:"), "%v", result.Errors)
	assert.True(t, hasMessage(result.Errors, "database.new_tables:"), "%v", result.Errors)
}

func TestValidate_StructuredFields(t *testing.T) {
	doc := `
id: rewards
name: Rewards
description: Reward catalog
database:
  new_tables:
    - name: rewards
      fields:
        - name: id
          type: uuid
          primary_key: true
        - name: label
`
	result := newValidator(t).ValidateBytes([]byte(doc), blueprint.FormatYAML)

	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.True(t, hasMessage(result.Warnings, `field "label" has no type`))
}

func TestValidate_DecodeFailure(t *testing.T) {
	result := validate(t, `{not json`)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid JSON")
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loyalty-plus.json")
	require.NoError(t, os.WriteFile(path, []byte(loyaltyPlus), 0644))

	v := newValidator(t)
	result := v.ValidateFile(path)
	assert.True(t, result.Valid)

	missing := v.ValidateFile(filepath.Join(dir, "missing.json"))
	assert.False(t, missing.Valid)
	assert.True(t, hasMessage(missing.Errors, "failed to read file"))
}

func TestValidate_HookNameCollision(t *testing.T) {
	doc := `{"id": "a", "name": "A", "description": "d", "database": {"new_tables": [
		{"name": "loyalty_tiers", "columns": ["id UUID"]},
		{"name": "loyalty_tier", "columns": ["id UUID"]}
	]}}`
	result := validate(t, doc)
	assert.False(t, result.Valid)
	assert.True(t, hasMessage(result.Errors, "same hook name as table loyalty_tiers"), "%v", result.Errors)
}
