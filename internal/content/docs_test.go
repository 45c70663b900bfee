package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/llm"
	"github.com/jonathan/module-builder/internal/types"
)

type fakeClient struct {
	text string
	err  error
	req  llm.Request
}

func (f *fakeClient) Generate(_ context.Context, req llm.Request) (string, error) {
	f.req = req
	return f.text, f.err
}

func (f *fakeClient) Close() error { return nil }

func blueprint() *types.Blueprint {
	return &types.Blueprint{
		ID:          "loyalty-plus",
		Name:        "Loyalty Plus",
		Description: "Points and tiers",
		Database: types.DatabaseSpec{NewTables: []types.TableSpec{
			{Name: "loyalty_tiers", Columns: []string{"id UUID PRIMARY KEY", "name TEXT NOT NULL"}},
		}},
		Routes: []types.RouteSpec{{Path: "/loyalty", Component: "TierList"}},
	}
}

func TestReadmePrompt(t *testing.T) {
	artifacts := []types.Artifact{
		{Kind: types.ArtifactEndpoint, TargetPath: "app/api/loyalty/tiers/route.ts"},
		{Kind: types.ArtifactHook, TargetPath: "hooks/useLoyaltyTiers.ts"},
	}
	prompt, err := ReadmePrompt(blueprint(), artifacts)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Module: Loyalty Plus (loyalty-plus)")
	assert.Contains(t, prompt, "- loyalty_tiers (2 columns)")
	assert.Contains(t, prompt, "- app/api/loyalty/tiers/route.ts")
	assert.NotContains(t, prompt, "useLoyaltyTiers")
	assert.Contains(t, prompt, "- /loyalty renders TierList")
	assert.Contains(t, prompt, "Value proposition: (none)")
	assert.NotContains(t, prompt, "{{.")
}

func TestReadme(t *testing.T) {
	client := &fakeClient{text: "```markdown\n# Loyalty Plus\n\nOverview.\n```"}
	a, err := NewGenerator(client).Readme(context.Background(), blueprint(), nil)
	require.NoError(t, err)

	assert.Equal(t, llm.TaskReadme, client.req.Task)
	assert.False(t, client.req.JSON)
	assert.Contains(t, client.req.Prompt, "Module: Loyalty Plus (loyalty-plus)")
	assert.Equal(t, types.ArtifactDocs, a.Kind)
	assert.Equal(t, ReadmePath, a.Path)
	assert.Contains(t, a.Content, "@generated by module-builder from blueprint loyalty-plus")
	assert.Contains(t, a.Content, "# Loyalty Plus\n\nOverview.\n")
	assert.NotContains(t, a.Content, "```")
	assert.NotEmpty(t, a.Digest)
}

func TestReadme_ProviderFailure(t *testing.T) {
	cause := &llm.ProviderError{Op: "generate", Cause: errors.New("503 unavailable")}
	_, err := NewGenerator(&fakeClient{err: cause}).Readme(context.Background(), blueprint(), nil)

	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message(), "503 unavailable")
}

func TestReadme_EmptyResponse(t *testing.T) {
	_, err := NewGenerator(&fakeClient{text: "  "}).Readme(context.Background(), blueprint(), nil)

	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "module README could not be generated: empty response", pe.Message())
}

func TestReadme_WrapsPlainErrors(t *testing.T) {
	_, err := NewGenerator(&fakeClient{err: context.DeadlineExceeded}).Readme(context.Background(), blueprint(), nil)

	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, llm.TaskReadme, pe.Task)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
