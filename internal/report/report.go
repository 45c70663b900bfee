// Package report writes the final run report in machine-readable (JSON) and
// human-readable (Markdown, HTML) form.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jonathan/module-builder/internal/types"
)

// File names inside the Blueprint's output directory.
const (
	JSONFile     = "report.json"
	MarkdownFile = "REPORT.md"
	HTMLFile     = "REPORT.html"
)

// Paths lists the files written by Write.
type Paths struct {
	JSON     string `json:"json"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// Write renders r into dir in all three formats.
func Write(dir string, r *types.RunReport) (*Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	md := Markdown(r)
	page, err := HTML(r)
	if err != nil {
		return nil, err
	}

	paths := &Paths{
		JSON:     filepath.Join(dir, JSONFile),
		Markdown: filepath.Join(dir, MarkdownFile),
		HTML:     filepath.Join(dir, HTMLFile),
	}
	for p, content := range map[string][]byte{
		paths.JSON:     append(data, '\n'),
		paths.Markdown: []byte(md),
		paths.HTML:     page,
	} {
		if err := os.WriteFile(p, content, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", filepath.Base(p), err)
		}
	}
	return paths, nil
}

// Markdown renders the human-readable report.
func Markdown(r *types.RunReport) string {
	var sb strings.Builder

	title := r.BlueprintID
	if title == "" {
		title = "(unparsed blueprint)"
	}
	fmt.Fprintf(&sb, "# Module build report: %s\n\n", title)
	fmt.Fprintf(&sb, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&sb, "- Policy: %s\n", r.Policy)
	fmt.Fprintf(&sb, "- Started: %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&sb, "- Result: **%s**\n", outcome(r))
	if r.CheckpointID != "" {
		fmt.Fprintf(&sb, "- Checkpoint: `%s`\n", r.CheckpointID)
	}
	if r.AbortReason != "" {
		fmt.Fprintf(&sb, "- Abort reason: %s\n", r.AbortReason)
	}
	if r.NeedsHumanReview() {
		sb.WriteString("- Human review requested\n")
	}

	sb.WriteString("\n## Layers\n\n")
	sb.WriteString("| Layer | Name | Status | Duration | Notes |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, l := range r.Layers {
		fmt.Fprintf(&sb, "| %s | %s | %s | %dms | %s |\n",
			FormatLayer(l.Layer), l.Name, status(l), l.DurationMS, cell(notes(l)))
	}

	var failed []types.LayerResult
	for _, l := range r.Layers {
		if !l.Success && !l.Skipped {
			failed = append(failed, l)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, l := range failed {
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", l.Name, l.Error)
			if l.Remediation != "" {
				fmt.Fprintf(&sb, "Suggested fix: %s\n\n", l.Remediation)
			}
		}
	}

	if len(r.Artifacts) > 0 {
		sb.WriteString("\n## Artifacts\n\n")
		sb.WriteString("| Kind | Path | Target | Digest |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, a := range r.Artifacts {
			digest := a.Digest
			if len(digest) > 12 {
				digest = digest[:12]
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | `%s` |\n", a.Kind, a.Path, a.TargetPath, digest)
		}
	}
	return sb.String()
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: left; }
code { background: #f4f4f4; padding: 0 3px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders the Markdown report as a standalone page.
func HTML(r *types.RunReport) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(r)), &body); err != nil {
		return nil, fmt.Errorf("failed to render report html: %w", err)
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: "Module build report: " + r.BlueprintID,
		Body:  template.HTML(body.String()), //nolint:gosec // goldmark escapes raw HTML by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report html: %w", err)
	}
	return out.Bytes(), nil
}

// FormatLayer prints integer layers without a fraction.
func FormatLayer(layer float64) string {
	if layer == float64(int(layer)) {
		return fmt.Sprintf("%d", int(layer))
	}
	return fmt.Sprintf("%.1f", layer)
}

func outcome(r *types.RunReport) string {
	switch {
	case r.Success:
		return "success"
	case r.Aborted:
		return "aborted"
	default:
		return "failed"
	}
}

func status(l types.LayerResult) string {
	switch {
	case l.Skipped:
		return "skipped"
	case l.Success && l.NeedsHumanReview:
		return "ok (review)"
	case l.Success:
		return "ok"
	case l.NeedsHumanReview:
		return "FAILED (review)"
	default:
		return "FAILED"
	}
}

func notes(l types.LayerResult) string {
	if l.Error != "" {
		return l.Error
	}
	return l.Remediation
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
