// Package validation checks Blueprint documents for structural problems before
// any other phase looks at them.
package validation

import (
	"fmt"
	"strings"
)

// RuleSetupError means a custom field rule could not be registered, so no
// Blueprint can be checked.
type RuleSetupError struct {
	Rule  string
	Cause error
}

func (e *RuleSetupError) Error() string {
	return fmt.Sprintf("failed to register %s rule: %v", e.Rule, e.Cause)
}

func (e *RuleSetupError) Unwrap() error {
	return e.Cause
}

// StructuralError reports a malformed Blueprint. It always blocks a run.
type StructuralError struct {
	BlueprintID string
	Errors      []string
}

func (e *StructuralError) Error() string {
	subject := "blueprint"
	if e.BlueprintID != "" {
		subject = fmt.Sprintf("blueprint %q", e.BlueprintID)
	}
	return fmt.Sprintf("%s is invalid (%d error(s)): %s", subject, len(e.Errors), strings.Join(e.Errors, "; "))
}
