package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readmeData struct {
	ID, Name, Description, ValueProposition, TargetAudience string
	Tables, Endpoints, Pages                                string
}

func TestRender_ModuleReadme(t *testing.T) {
	prompt, err := Render(DocsFile, ModuleReadme, readmeData{
		ID:          "loyalty-plus",
		Name:        "Loyalty Plus",
		Description: "Points and tiers",
		Tables:      "- loyalty_tiers (4 columns)",
		Endpoints:   "(none)",
		Pages:       "(none)",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Module: Loyalty Plus (loyalty-plus)")
	assert.Contains(t, prompt, "- loyalty_tiers (4 columns)")
	assert.NotContains(t, prompt, "{{")
}

func TestRender_MissingPlaceholderValue(t *testing.T) {
	_, err := Render(DocsFile, ModuleReadme, map[string]string{"Name": "Loyalty Plus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to render prompt")
}

func TestRender_UnknownPrompt(t *testing.T) {
	_, err := Render(DocsFile, "nope", nil)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.Name)
}

func TestRender_UnknownFile(t *testing.T) {
	_, err := Render("missing.json", ModuleReadme, nil)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "prompt file missing.json not found", err.Error())
}

func TestNames(t *testing.T) {
	names, err := Names(DocsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{ModuleReadme}, names)
}
