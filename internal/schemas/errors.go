package schemas

import (
	"fmt"
	"strings"
)

// FieldError is one schema violation. Field uses the bracketed path style
// of Blueprint messages, e.g. "database.new_tables[0].columns".
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// ViolationError lists every schema violation of a document, ordered by
// field.
type ViolationError struct {
	Schema string
	Errors []FieldError
}

func (e *ViolationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d violation(s)", e.Schema, len(e.Errors))
	for _, fe := range e.Errors {
		fmt.Fprintf(&sb, "\n  %s: %s", fe.Field, fe.Message)
	}
	return sb.String()
}

// LoadError reports a schema that is missing or does not compile.
type LoadError struct {
	Schema string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Schema, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
