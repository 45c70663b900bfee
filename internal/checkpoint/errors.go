// Package checkpoint snapshots the Blueprint and ProjectContext before
// generation and keeps a bounded ring of the most recent snapshots.
package checkpoint

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for an unknown checkpoint identity.
var ErrNotFound = errors.New("checkpoint not found")

// ErrLocked is returned when the checkpoint directory lock cannot be taken
// before the context is done.
var ErrLocked = errors.New("checkpoint directory is locked by another process")

// IOError represents a failure to write, read or evict checkpoint files. A
// failed write leaves the ring as it was.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}
