// Package content generates the module's developer documentation through the
// generative-AI capability. It never gates a run.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/module-builder/internal/emit"
	"github.com/jonathan/module-builder/internal/llm"
	"github.com/jonathan/module-builder/internal/prompts"
	"github.com/jonathan/module-builder/internal/types"
)

// ReadmePath is the docs artifact path inside the output directory.
const ReadmePath = "README.md"

// Generator writes module documentation with an LLM client.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a Generator over client.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// readmeInput fills the module-readme prompt.
type readmeInput struct {
	ID               string
	Name             string
	Description      string
	ValueProposition string
	TargetAudience   string
	Tables           string
	Endpoints        string
	Pages            string
}

// ReadmePrompt builds the README prompt for a Blueprint.
func ReadmePrompt(bp *types.Blueprint, artifacts []types.Artifact) (string, error) {
	var tables []string
	for _, t := range bp.Database.NewTables {
		tables = append(tables, fmt.Sprintf("- %s (%d columns)", t.Name, t.ColumnCount()))
	}
	var endpoints []string
	for _, a := range artifacts {
		if a.Kind == types.ArtifactEndpoint {
			endpoints = append(endpoints, "- "+a.TargetPath)
		}
	}
	var pages []string
	for _, r := range bp.Routes {
		pages = append(pages, fmt.Sprintf("- %s renders %s", r.Path, r.Component))
	}

	return prompts.Render(prompts.DocsFile, prompts.ModuleReadme, readmeInput{
		ID:               bp.ID,
		Name:             bp.Name,
		Description:      bp.Description,
		ValueProposition: orNone(bp.ValueProposition),
		TargetAudience:   orNone(bp.TargetAudience),
		Tables:           list(tables),
		Endpoints:        list(endpoints),
		Pages:            list(pages),
	})
}

// Readme asks the model for the module README. Provider failures come back
// as *llm.ProviderError.
func (g *Generator) Readme(ctx context.Context, bp *types.Blueprint, artifacts []types.Artifact) (types.Artifact, error) {
	prompt, err := ReadmePrompt(bp, artifacts)
	if err != nil {
		return types.Artifact{}, err
	}
	text, err := g.client.Generate(ctx, llm.Request{Task: llm.TaskReadme, Prompt: prompt})
	if err != nil {
		var pe *llm.ProviderError
		if !errors.As(err, &pe) {
			err = &llm.ProviderError{Op: "generate", Task: llm.TaskReadme, Cause: err}
		}
		return types.Artifact{}, err
	}
	text = llm.StripFence(text)
	if text == "" {
		return types.Artifact{}, &llm.ProviderError{Op: "generate", Task: llm.TaskReadme, Cause: fmt.Errorf("empty response")}
	}

	content := fmt.Sprintf("<!-- %s by module-builder from blueprint %s -->\n\n%s\n", emit.GeneratedMarker, bp.ID, text)
	return types.Artifact{
		Kind:    types.ArtifactDocs,
		Step:    "Documentation",
		Path:    ReadmePath,
		Content: content,
		Digest:  emit.Digest(content),
	}, nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func list(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, "\n")
}
