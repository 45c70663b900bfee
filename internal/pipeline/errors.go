package pipeline

import "fmt"

// PhaseError is returned by a full run that stopped on a failed gating phase.
type PhaseError struct {
	Layer float64
	Phase string
	Cause error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Cause)
}

func (e *PhaseError) Unwrap() error {
	return e.Cause
}
