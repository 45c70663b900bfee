package emit

import (
	"fmt"

	"github.com/jonathan/module-builder/internal/types"
)

// Error wraps a failure to emit the artifact of one plan step.
type Error struct {
	Step  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("emit %s: %v", e.Step, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UnknownStepError is returned when no emitter is registered for a step kind.
type UnknownStepError struct {
	Step string
	Kind types.StepKind
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("no emitter registered for step %q (kind %s)", e.Step, e.Kind)
}
