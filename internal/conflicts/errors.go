// Package conflicts compares a Blueprint's proposed names and paths against
// the existing project and classifies each collision by severity.
package conflicts

import (
	"fmt"
	"strings"

	"github.com/jonathan/module-builder/internal/types"
)

// ConflictError carries the error-severity conflicts that block a run.
type ConflictError struct {
	Conflicts []types.Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		part := fmt.Sprintf("%s %s collides with %s", c.Type, c.ProposedName, c.ExistingName)
		if c.Suggestion != "" {
			part += fmt.Sprintf(" (suggest %s)", c.Suggestion)
		}
		parts = append(parts, part)
	}
	return fmt.Sprintf("%d conflict(s): %s", len(e.Conflicts), strings.Join(parts, "; "))
}
