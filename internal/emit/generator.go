package emit

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Emitter renders the artifact for one plan step.
type Emitter interface {
	Emit(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error)

// Emit calls f.
func (f EmitterFunc) Emit(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	return f(g, in, step)
}

// Generator dispatches plan steps to the emitter registered for their kind.
type Generator struct {
	emitters map[types.StepKind]Emitter
	funcs    template.FuncMap
	now      func() time.Time
}

// NewGenerator creates a Generator with every built-in emitter registered.
func NewGenerator() *Generator {
	g := &Generator{
		emitters: make(map[types.StepKind]Emitter),
		funcs:    templateFuncs(),
		now:      time.Now,
	}
	g.Register(types.StepMigration, EmitterFunc(emitMigration))
	g.Register(types.StepTypes, EmitterFunc(emitContracts))
	g.Register(types.StepAPIRoute, EmitterFunc(emitEndpoint))
	g.Register(types.StepHook, EmitterFunc(emitHook))
	g.Register(types.StepComponent, EmitterFunc(emitComponent))
	g.Register(types.StepPage, EmitterFunc(emitPage))
	g.Register(types.StepUnitTests, EmitterFunc(emitUnitTests))
	g.Register(types.StepIntegrationTests, EmitterFunc(emitIntegrationTests))
	g.Register(types.StepConfig, EmitterFunc(emitFeatureConfig))
	return g
}

// Register sets the emitter for a step kind, replacing any previous one.
func (g *Generator) Register(kind types.StepKind, e Emitter) {
	g.emitters[kind] = e
}

// Generate emits one artifact per plan step, in plan order.
func (g *Generator) Generate(ctx context.Context, bp *types.Blueprint, plan *types.ExecutionPlan) ([]types.Artifact, error) {
	in, err := NewInput(bp, plan, g.now())
	if err != nil {
		return nil, err
	}

	artifacts := make([]types.Artifact, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, ok := g.emitters[step.Kind]
		if !ok {
			return nil, &UnknownStepError{Step: step.Name, Kind: step.Kind}
		}
		a, err := e.Emit(g, in, step)
		if err != nil {
			return nil, &Error{Step: step.Name, Cause: err}
		}
		a.Step = step.Name
		if a.TargetPath == "" {
			a.TargetPath = step.TargetPath
		}
		a.Digest = Digest(a.Content)
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// Render executes an embedded template with the Generator's function map.
func (g *Generator) Render(name string, data any) (string, error) {
	content, err := templateFS.ReadFile("templates/" + name + ".tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(g.funcs).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"toLower":  strings.ToLower,
		"toUpper":  strings.ToUpper,
		"pascal":   blueprint.ToPascalCase,
		"camel":    blueprint.ToCamelCase,
		"kebab":    blueprint.ToKebabCase,
		"snake":    blueprint.ToSnakeCase,
		"join":     strings.Join,
		"quote":    tsQuote,
		"quoteAll": tsQuoteAll,
		"omitKeys": omitKeys,
		"jsxText":  jsxText.Replace,
	}
}

var jsxText = strings.NewReplacer("{", "&#123;", "}", "&#125;", "<", "&lt;", ">", "&gt;")

func tsQuoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = tsQuote(s)
	}
	return strings.Join(quoted, ", ")
}

// omitKeys renders a zod omit mask: "id: true, organization_id: true".
func omitKeys(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": true"
	}
	return strings.Join(parts, ", ")
}

// tsQuote renders a single-quoted TypeScript string literal.
func tsQuote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

// WriteAll writes artifacts under dir, creating parent directories.
func WriteAll(dir string, artifacts []types.Artifact) error {
	for _, a := range artifacts {
		dest := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", a.Path, err)
		}
		if err := os.WriteFile(dest, []byte(a.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.Path, err)
		}
	}
	return nil
}
