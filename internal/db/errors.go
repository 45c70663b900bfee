package db

import (
	"errors"
	"fmt"
)

// ErrMissingTenant is returned for any row operation whose scope carries no
// tenant. No statement is sent to the store.
var ErrMissingTenant = errors.New("tenant identifier required")

// ErrNotFound is returned when a scoped row does not exist.
var ErrNotFound = errors.New("row not found")

// ErrEmptyUpdate is returned when an update carries no writable columns.
var ErrEmptyUpdate = errors.New("update has no writable columns")

// ExternalCallError wraps a failure reported by the data store.
type ExternalCallError struct {
	Op    string
	Cause error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("data store %s failed: %v", e.Op, e.Cause)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Cause
}

// InvalidIdentifierError is returned for a table or column name that is not
// a plain lowercase SQL identifier.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q", e.Name)
}
