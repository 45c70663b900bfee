// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/jonathan/module-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

var (
	passColor   = color.New(color.FgHiGreen)
	failColor   = color.New(color.FgRed, color.Bold)
	reviewColor = color.New(color.FgYellow)
	dimColor    = color.New(color.FgHiBlack)
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintLayer outputs one status line per LayerResult, plus the error and
// remediation of a failed layer.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLayer(l types.LayerResult) {
	var mark string
	switch {
	case l.Skipped:
		mark = dimColor.Sprint("SKIP")
	case !l.Success:
		mark = failColor.Sprint("FAIL")
	case l.NeedsHumanReview:
		mark = reviewColor.Sprint("REVIEW")
	default:
		mark = passColor.Sprint("PASS")
	}
	fmt.Fprintf(p.out, "%s  layer %s %s %s\n", mark, formatLayer(l.Layer), l.Name,
		dimColor.Sprintf("(%dms)", l.DurationMS))
	if l.Error != "" {
		fmt.Fprintf(p.out, "      %s\n", l.Error)
	}
	if l.Remediation != "" {
		fmt.Fprintf(p.out, "      fix: %s\n", l.Remediation)
	}
}

// PrintFeasibility outputs the score, checks and findings of a feasibility report.
func (p *Printer) PrintFeasibility(r *types.FeasibilityReport) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:    %d/100\n", r.Score))
	sb.WriteString(fmt.Sprintf("Feasible: %t\n\n", r.Feasible))

	for _, c := range r.Checks {
		mark := "✓"
		if !c.Passed {
			mark = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, c.Name))
	}

	if len(r.Blockers) > 0 {
		sb.WriteString("\nBlockers:\n")
		for _, b := range r.Blockers {
			sb.WriteString(fmt.Sprintf("  • %s\n", b))
		}
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		count := min(len(r.Recommendations), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", r.Recommendations[i]))
		}
		if len(r.Recommendations) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Recommendations)-maxItemsToShow))
		}
	}

	p.printBox("FEASIBILITY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintConflicts outputs conflicts and warnings.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintConflicts(r *types.ConflictReport) {
	if r == nil {
		return
	}
	if len(r.Conflicts) == 0 && len(r.Warnings) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO CONFLICTS FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, c := range r.Conflicts {
		sb.WriteString(fmt.Sprintf("[%s] %s %s\n", c.Severity, c.Type, c.ProposedName))
		if c.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  → %s\n", c.Suggestion))
		}
		if i < len(r.Conflicts)-1 {
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		if len(r.Conflicts) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", w.Message))
		}
	}

	p.printBox("CONFLICTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPlan outputs the ordered execution steps.
func (p *Printer) PrintPlan(plan *types.ExecutionPlan) {
	if plan == nil || len(plan.Steps) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d steps, ~%ds\n\n", len(plan.Steps), plan.EstimatedDuration))
	for _, s := range plan.Steps {
		sb.WriteString(fmt.Sprintf("%2d. %s\n", s.Order, s.Name))
		if len(s.DependsOn) > 0 {
			sb.WriteString(fmt.Sprintf("    after: %s\n", strings.Join(s.DependsOn, ", ")))
		}
	}

	p.printBox("EXECUTION PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the final outcome of a run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSummary(r *types.RunReport) {
	if r == nil {
		return
	}
	passed := 0
	for _, l := range r.Layers {
		if l.Success {
			passed++
		}
	}
	outcome := passColor.Sprint("SUCCESS")
	if !r.Success {
		outcome = failColor.Sprint("FAILED")
	}
	fmt.Fprintf(p.out, "\n%s  %d/%d layers passed\n", outcome, passed, len(r.Layers))
	if r.AbortReason != "" {
		fmt.Fprintf(p.out, "Aborted: %s\n", r.AbortReason)
	}
	if r.NeedsHumanReview() {
		fmt.Fprintf(p.out, "%s\n", reviewColor.Sprint("Human review requested"))
	}
}

func formatLayer(layer float64) string {
	if layer == float64(int(layer)) {
		return fmt.Sprintf("%d", int(layer))
	}
	return fmt.Sprintf("%.1f", layer)
}
