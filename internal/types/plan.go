package types

import "time"

// StepKind is the kind of work an execution step performs.
type StepKind string

// Step kinds, in phase order.
const (
	StepMigration        StepKind = "migration"
	StepTypes            StepKind = "types"
	StepAPIRoute         StepKind = "api_route"
	StepHook             StepKind = "hook"
	StepComponent        StepKind = "component"
	StepPage             StepKind = "page"
	StepUnitTests        StepKind = "unit_tests"
	StepIntegrationTests StepKind = "integration_tests"
	StepConfig           StepKind = "config"
)

// ExecutionStep is one named unit of generation work.
type ExecutionStep struct {
	Order            int      `json:"order"`
	Kind             StepKind `json:"kind"`
	Name             string   `json:"name"`
	TargetPath       string   `json:"target_path,omitempty"`
	DependsOn        []string `json:"depends_on"`
	Description      string   `json:"description"`
	EstimatedSeconds int      `json:"estimated_seconds"`
}

// ExecutionPlan is the dependency-ordered list of steps for one Blueprint.
type ExecutionPlan struct {
	BlueprintID       string          `json:"blueprint_id"`
	Steps             []ExecutionStep `json:"steps"`
	EstimatedDuration int             `json:"estimated_duration_seconds"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Step returns the step with the given name.
func (p *ExecutionPlan) Step(name string) (ExecutionStep, bool) {
	for _, s := range p.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return ExecutionStep{}, false
}

// StepsOfKind returns the steps of the given kind in plan order.
func (p *ExecutionPlan) StepsOfKind(kind StepKind) []ExecutionStep {
	var out []ExecutionStep
	for _, s := range p.Steps {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}
