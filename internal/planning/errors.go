// Package planning turns a validated, conflict-free Blueprint into a
// dependency-ordered ExecutionPlan.
package planning

import "fmt"

// InvariantViolation means a plan references a step that is not defined
// earlier in the same plan, or defines a step name twice. It indicates a
// defect in the planner, not in the Blueprint.
type InvariantViolation struct {
	Step    string
	Missing string
	Message string
}

func (e *InvariantViolation) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("plan invariant violated: step %q depends on %q: %s", e.Step, e.Missing, e.Message)
	}
	return fmt.Sprintf("plan invariant violated: step %q: %s", e.Step, e.Message)
}
