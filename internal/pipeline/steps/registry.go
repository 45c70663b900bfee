// Package steps declares the orchestrator's phases, their layer ordinals and
// the dependencies that must succeed before each phase may start.
package steps

import (
	"fmt"
	"sort"
)

// Phase keys.
const (
	Validate    = "validate"
	Feasibility = "feasibility"
	Context     = "context"
	Conflicts   = "conflicts"
	Plan        = "plan"
	Checkpoint  = "checkpoint"
	Emit        = "emit"
	ApplySchema = "apply_schema"
	Write       = "write"
	Register    = "register"
	Health      = "health"
	Docs        = "docs"
)

// Phase defines metadata for one orchestrator phase
type Phase struct {
	Key   string
	Layer float64
	Name  string
	// Message is the progress line printed when the phase starts.
	Message string
	// Gating phases halt the run when they fail.
	Gating bool
	// Prepare marks the preparation portion run by the prepare policy.
	Prepare      bool
	Dependencies []string
}

// Registry holds all phases in execution order.
var Registry = []Phase{
	{Key: Validate, Layer: 1, Name: "Blueprint Validation", Message: "Validating blueprint", Gating: true, Prepare: true},
	{Key: Feasibility, Layer: 2, Name: "Feasibility Analysis", Message: "Analyzing feasibility", Gating: true, Prepare: true, Dependencies: []string{Validate}},
	{Key: Context, Layer: 2.5, Name: "Context Extraction", Message: "Extracting project context", Gating: true, Prepare: true, Dependencies: []string{Validate}},
	{Key: Conflicts, Layer: 3, Name: "Conflict Detection", Message: "Detecting conflicts", Gating: true, Prepare: true, Dependencies: []string{Feasibility, Context}},
	{Key: Plan, Layer: 4, Name: "Execution Planning", Message: "Planning execution", Gating: true, Prepare: true, Dependencies: []string{Conflicts}},
	{Key: Checkpoint, Layer: 5, Name: "Checkpoint", Message: "Creating checkpoint", Gating: true, Prepare: true, Dependencies: []string{Plan}},
	{Key: Emit, Layer: 6, Name: "Artifact Emission", Message: "Emitting artifacts", Gating: true, Dependencies: []string{Plan, Checkpoint}},
	{Key: ApplySchema, Layer: 7, Name: "Schema Application", Message: "Applying schema", Gating: true, Dependencies: []string{Emit}},
	{Key: Write, Layer: 8, Name: "Artifact Write", Message: "Writing artifacts into the project", Gating: true, Dependencies: []string{Emit, ApplySchema}},
	{Key: Register, Layer: 9, Name: "Endpoint Registration", Message: "Registering endpoints", Gating: true, Dependencies: []string{Write}},
	{Key: Health, Layer: 10, Name: "Health Check", Message: "Probing new pages", Dependencies: []string{Register}},
	{Key: Docs, Layer: 11, Name: "Documentation", Message: "Generating documentation", Dependencies: []string{Emit}},
}

// Lookup returns the phase with the given key.
func Lookup(key string) (Phase, bool) {
	for _, p := range Registry {
		if p.Key == key {
			return p, true
		}
	}
	return Phase{}, false
}

// Phases returns the phases to run, in order. prepareOnly limits them to the
// preparation portion.
func Phases(prepareOnly bool) []Phase {
	var out []Phase
	for _, p := range Registry {
		if prepareOnly && !p.Prepare {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("phase %s is missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every dependency of a phase has
// succeeded. completed maps phase keys to their success.
func ValidateDependencies(completed map[string]bool, key string) error {
	def, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("unknown step: %s", key)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: key, MissingDependencies: missing}
	}
	return nil
}

// Available returns the phases whose dependencies have all succeeded and
// that have not succeeded themselves, sorted by layer.
func Available(completed map[string]bool) []string {
	var available []Phase
	for _, p := range Registry {
		if completed[p.Key] {
			continue
		}
		if ValidateDependencies(completed, p.Key) != nil {
			continue
		}
		available = append(available, p)
	}
	sort.SliceStable(available, func(i, j int) bool { return available[i].Layer < available[j].Layer })

	keys := make([]string, len(available))
	for i, p := range available {
		keys[i] = p.Key
	}
	return keys
}

// CheckRegistry verifies that every dependency names a phase declared
// earlier with a smaller layer.
func CheckRegistry(phases []Phase) error {
	seen := make(map[string]float64, len(phases))
	for _, p := range phases {
		if _, dup := seen[p.Key]; dup {
			return fmt.Errorf("phase %s is declared twice", p.Key)
		}
		for _, dep := range p.Dependencies {
			layer, ok := seen[dep]
			if !ok {
				return fmt.Errorf("phase %s depends on %s, which is not declared before it", p.Key, dep)
			}
			if layer >= p.Layer {
				return fmt.Errorf("phase %s (layer %v) depends on %s (layer %v)", p.Key, p.Layer, dep, layer)
			}
		}
		seen[p.Key] = p.Layer
	}
	return nil
}
