package blueprint

import "fmt"

// DecodeError represents a Blueprint document that could not be read or decoded.
type DecodeError struct {
	Path    string
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	where := e.Path
	if where == "" {
		where = "(inline document)"
	}
	if e.Cause != nil {
		return fmt.Sprintf("blueprint %s: %s: %v", where, e.Message, e.Cause)
	}
	return fmt.Sprintf("blueprint %s: %s", where, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// ColumnError represents a column descriptor that could not be parsed.
type ColumnError struct {
	Descriptor string
	Message    string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Descriptor, e.Message)
}

// MissingTypeError is returned for a column with no discernible type. The
// accompanying ColumnSpec falls back to text, so callers may treat it as advisory.
type MissingTypeError struct {
	Column string
}

func (e *MissingTypeError) Error() string {
	return fmt.Sprintf("column %q has no discernible type", e.Column)
}
