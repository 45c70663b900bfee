package pipeline

import "fmt"

// Policy selects which phases run and how a failure is handled.
type Policy string

const (
	// PolicyPrepare runs validation through checkpoint. A failed phase stops
	// the run and the report carries CanProceed=false.
	PolicyPrepare Policy = "prepare"
	// PolicyFull runs every phase. The first failed gating phase aborts the
	// run and Run returns a *PhaseError; the report is still written.
	PolicyFull Policy = "full"
)

// ParsePolicy converts a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyPrepare, "":
		return PolicyPrepare, nil
	case PolicyFull:
		return PolicyFull, nil
	default:
		return "", fmt.Errorf("unknown policy %q (want prepare or full)", s)
	}
}
