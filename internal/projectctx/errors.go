// Package projectctx builds a read-only inventory of a target codebase: its
// tables, page routes, components, files, installed packages and configured
// environment keys.
package projectctx

import "fmt"

// ReadError represents a failure to read the project as a whole. Unreadable
// subtrees are not errors; they are listed in ProjectContext.Skipped.
type ReadError struct {
	Root    string
	Message string
	Cause   error
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("project context %s: %s: %v", e.Root, e.Message, e.Cause)
	}
	return fmt.Sprintf("project context %s: %s", e.Root, e.Message)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}
