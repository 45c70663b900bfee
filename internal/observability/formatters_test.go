package observability

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/module-builder/internal/types"
)

func init() {
	color.NoColor = true
}

func TestPrintLayer(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLayer(types.LayerResult{Layer: 1, Name: "Blueprint Validation", Success: true, DurationMS: 4})
	p.PrintLayer(types.LayerResult{
		Layer:       4,
		Name:        "Conflict Detection",
		Error:       "table user already exists",
		Remediation: "rename to user_loyalty-plus",
	})
	p.PrintLayer(types.LayerResult{Layer: 3.5, Name: "Context Extraction", Skipped: true})

	output := buf.String()
	assert.Contains(t, output, "PASS  layer 1 Blueprint Validation (4ms)")
	assert.Contains(t, output, "FAIL  layer 4 Conflict Detection")
	assert.Contains(t, output, "table user already exists")
	assert.Contains(t, output, "fix: rename to user_loyalty-plus")
	assert.Contains(t, output, "SKIP  layer 3.5 Context Extraction")
}

func TestPrintFeasibility(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFeasibility(&types.FeasibilityReport{
		Score:           50,
		Checks:          []types.Check{{Name: "foreign_keys", Passed: false}, {Name: "auth", Passed: true}},
		Blockers:        []string{"unknown table members"},
		Recommendations: []string{"a", "b", "c", "d", "e", "f", "g"},
	})

	output := buf.String()
	assert.Contains(t, output, "FEASIBILITY")
	assert.Contains(t, output, "Score:    50/100")
	assert.Contains(t, output, "✗ foreign_keys")
	assert.Contains(t, output, "✓ auth")
	assert.Contains(t, output, "unknown table members")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintConflicts(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintConflicts(&types.ConflictReport{
		HasConflicts: true,
		Conflicts: []types.Conflict{{
			Type: types.ConflictTable, ProposedName: "user", Severity: types.SeverityError, Suggestion: "user_loyalty",
		}},
		Warnings: []types.ConflictWarning{{Type: types.ConflictTable, Name: "order", Message: "order is a reserved word"}},
	})

	output := buf.String()
	assert.Contains(t, output, "[error] table user")
	assert.Contains(t, output, "→ user_loyalty")
	assert.Contains(t, output, "⚠ order is a reserved word")
}

func TestPrintConflicts_None(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintConflicts(&types.ConflictReport{})
	assert.Contains(t, buf.String(), "NO CONFLICTS FOUND")
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPlan(&types.ExecutionPlan{
		EstimatedDuration: 40,
		Steps: []types.ExecutionStep{
			{Order: 1, Name: "Database Migration"},
			{Order: 2, Name: "Database Types", DependsOn: []string{"Database Migration"}},
		},
	})

	output := buf.String()
	assert.Contains(t, output, "2 steps, ~40s")
	assert.Contains(t, output, " 2. Database Types")
	assert.Contains(t, output, "after: Database Migration")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(&types.RunReport{
		AbortReason: "Conflict Detection failed",
		Layers: []types.LayerResult{
			{Success: true},
			{Success: false, NeedsHumanReview: true},
		},
	})

	output := buf.String()
	assert.Contains(t, output, "FAILED  1/2 layers passed")
	assert.Contains(t, output, "Aborted: Conflict Detection failed")
	assert.Contains(t, output, "Human review requested")
}

func TestPrintNil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintFeasibility(nil)
	p.PrintConflicts(nil)
	p.PrintPlan(nil)
	p.PrintSummary(nil)
	assert.Empty(t, buf.String())
}
