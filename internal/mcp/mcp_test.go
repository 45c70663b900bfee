package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/types"
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
					"id UUID PRIMARY KEY DEFAULT gen_random_uuid()",
					"organization_id UUID NOT NULL",
					"name TEXT NOT NULL",
					"min_points INTEGER DEFAULT 0"
				]
			}
		]
	}
}`

const loyaltyPlusYAML = `id: loyalty-plus
name: Loyalty Plus
description: Points and tiers for repeat customers
database:
  new_tables:
    - name: loyalty_tiers
      columns:
        - id UUID PRIMARY KEY DEFAULT gen_random_uuid()
        - organization_id UUID NOT NULL
        - name TEXT NOT NULL
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// testSetup creates a project the preparation layers accept and handlers
// bound to it.
func testSetup(t *testing.T) (*Handlers, pipeline.Options) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies": {"@supabase/supabase-js": "^2.0.0"}}`)
	writeFile(t, filepath.Join(root, "middleware.ts"), "export async function middleware(request) {\n"+
		"  const { data } = await supabase.auth.getUser()\n  if (!data.user) return redirectToLogin(request)\n}\n")

	base := pipeline.Options{
		ProjectRoot:   root,
		OutputDir:     t.TempDir(),
		CheckpointDir: t.TempDir(),
		Out:           io.Discard,
	}
	h, err := NewHandlers(base)
	require.NoError(t, err)
	return h, base
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func parseResult[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &v))
	return v
}

type errorPayload struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func TestToolRegistry(t *testing.T) {
	names := ToolNames()
	sort.Strings(names)
	assert.Equal(t, []string{"blueprint_plan", "blueprint_prepare", "blueprint_validate", "checkpoint_list"}, names)

	for name, entry := range toolRegistry {
		assert.Equal(t, name, entry.def.Name)
		assert.NotEmpty(t, entry.def.Description)
	}
	assert.Contains(t, toolRegistry["blueprint_validate"].def.InputSchema.Properties, "document")
}

func TestNewServer(t *testing.T) {
	_, base := testSetup(t)
	s, err := NewServer(base, "test")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestHandleValidate(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "loyalty.json")
	writeFile(t, path, loyaltyPlus)

	tests := []struct {
		name      string
		args      map[string]any
		wantError string
		wantValid bool
	}{
		{name: "inline json", args: map[string]any{"document": loyaltyPlus}, wantValid: true},
		{name: "inline yaml", args: map[string]any{"document": loyaltyPlusYAML, "format": "yaml"}, wantValid: true},
		{name: "path", args: map[string]any{"path": path}, wantValid: true},
		{name: "invalid document", args: map[string]any{"document": `{"id": "Bad Id"}`}, wantValid: false},
		{name: "missing file", args: map[string]any{"path": filepath.Join(t.TempDir(), "nope.json")}, wantValid: false},
		{name: "no input", args: map[string]any{}, wantError: CodeInvalidRequest},
		{name: "both inputs", args: map[string]any{"path": path, "document": loyaltyPlus}, wantError: CodeInvalidRequest},
		{name: "bad format", args: map[string]any{"document": loyaltyPlus, "format": "toml"}, wantError: CodeInvalidRequest},
		{name: "wrong argument type", args: map[string]any{"document": 42}, wantError: CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleValidate(ctx, makeRequest(tt.args))
			require.NoError(t, err)

			if tt.wantError != "" {
				require.True(t, result.IsError)
				assert.Equal(t, tt.wantError, parseResult[errorPayload](t, result).Error.Code)
				return
			}
			require.False(t, result.IsError, resultText(t, result))
			out := parseResult[ValidateResult](t, result)
			assert.Equal(t, tt.wantValid, out.Valid)
			if tt.wantValid {
				assert.Equal(t, "loyalty-plus", out.BlueprintID)
				assert.Empty(t, out.Errors)
			} else {
				assert.NotEmpty(t, out.Errors)
			}
		})
	}
}

func TestHandlePlan(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, err := h.HandlePlan(ctx, makeRequest(map[string]any{"document": loyaltyPlus}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	plan := parseResult[types.ExecutionPlan](t, result)
	assert.Equal(t, "loyalty-plus", plan.BlueprintID)
	assert.Len(t, plan.Steps, 6)
}

func TestHandlePlan_InvalidBlueprint(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandlePlan(context.Background(), makeRequest(map[string]any{"document": `{"id": "x"}`}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	payload := parseResult[errorPayload](t, result)
	assert.Equal(t, CodeInvalidBlueprint, payload.Error.Code)
	assert.Contains(t, payload.Error.Details, "missing required field: name")
}

func TestHandlePrepare(t *testing.T) {
	h, base := testSetup(t)

	result, err := h.HandlePrepare(context.Background(), makeRequest(map[string]any{"document": loyaltyPlus}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	rep := parseResult[types.RunReport](t, result)
	assert.True(t, rep.Success)
	assert.True(t, rep.CanProceed)
	assert.Equal(t, "loyalty-plus", rep.BlueprintID)
	assert.NotEmpty(t, rep.CheckpointID)
	assert.FileExists(t, filepath.Join(base.OutputDir, "loyalty-plus", pipeline.ContextFileName))

	list, err := h.HandleListCheckpoints(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.False(t, list.IsError, resultText(t, list))
	cps := parseResult[CheckpointListResult](t, list)
	require.Len(t, cps.Checkpoints, 1)
	assert.Equal(t, rep.CheckpointID, cps.Checkpoints[0].ID)
	assert.Equal(t, base.CheckpointDir, cps.Dir)
}

func TestHandlePrepare_FailedLayerStillReturnsReport(t *testing.T) {
	h, base := testSetup(t)
	writeFile(t, filepath.Join(base.ProjectRoot, "supabase", "migrations", "001_init.sql"),
		"CREATE TABLE loyalty_tiers (id uuid primary key);\n")

	result, err := h.HandlePrepare(context.Background(), makeRequest(map[string]any{"document": loyaltyPlus}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	rep := parseResult[types.RunReport](t, result)
	assert.False(t, rep.Success)
	assert.NotEmpty(t, rep.AbortReason)
}

func TestHandlePrepare_CancelledContext(t *testing.T) {
	h, _ := testSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.HandlePrepare(ctx, makeRequest(map[string]any{"document": loyaltyPlus}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Equal(t, CodeCancelled, parseResult[errorPayload](t, result).Error.Code)
}

func TestHandleListCheckpoints_Empty(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandleListCheckpoints(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Empty(t, parseResult[CheckpointListResult](t, result).Checkpoints)
}

func TestErrorResult_HidesInternalMessages(t *testing.T) {
	result := errorResult(os.ErrPermission)
	require.True(t, result.IsError)

	payload := parseResult[errorPayload](t, result)
	assert.Equal(t, CodeInternal, payload.Error.Code)
	assert.Equal(t, "an internal error occurred", payload.Error.Message)
}
