package types

// Check is one named feasibility check.
type Check struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// FeasibilityReport is the outcome of one Feasibility Analyzer invocation.
type FeasibilityReport struct {
	Feasible        bool     `json:"feasible"`
	Score           int      `json:"score"`
	Checks          []Check  `json:"checks"`
	Blockers        []string `json:"blockers"`
	Recommendations []string `json:"recommendations"`
}
