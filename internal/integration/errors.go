package integration

import "fmt"

// WriteError reports a failed write stage. RolledBack tells whether every
// earlier write of the stage was undone.
type WriteError struct {
	Path        string
	Cause       error
	RolledBack  bool
	RollbackErr error
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
	if e.RolledBack {
		return msg + " (earlier writes rolled back)"
	}
	if e.RollbackErr != nil {
		return fmt.Sprintf("%s (rollback failed: %v)", msg, e.RollbackErr)
	}
	return msg
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// MarkerNotFoundError is returned when an insertion marker is missing from
// an existing file.
type MarkerNotFoundError struct {
	Path   string
	Marker string
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("marker %q not found in %s", e.Marker, e.Path)
}
