package types

// ConflictType classifies what kind of artifact collided.
type ConflictType string

// Conflict types.
const (
	ConflictTable     ConflictType = "table"
	ConflictRoute     ConflictType = "route"
	ConflictComponent ConflictType = "component"
	ConflictFile      ConflictType = "file"
	ConflictAPIRoute  ConflictType = "api_route"
)

// Severity of a conflict. Only SeverityError blocks a run.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict is a collision between a proposed artifact and existing project state.
type Conflict struct {
	Type         ConflictType `json:"type"`
	ExistingName string       `json:"existing_name"`
	ProposedName string       `json:"proposed_name"`
	Severity     Severity     `json:"severity"`
	Suggestion   string       `json:"suggestion,omitempty"`
}

// ConflictWarning is an advisory finding that never blocks.
type ConflictWarning struct {
	Type    ConflictType `json:"type"`
	Name    string       `json:"name"`
	Message string       `json:"message"`
}

// ConflictReport is the outcome of one Conflict Detector invocation.
type ConflictReport struct {
	HasConflicts bool              `json:"has_conflicts"`
	Conflicts    []Conflict        `json:"conflicts"`
	Warnings     []ConflictWarning `json:"warnings"`
}

// Errors returns the error-severity conflicts.
func (r *ConflictReport) Errors() []Conflict {
	var out []Conflict
	for _, c := range r.Conflicts {
		if c.Severity == SeverityError {
			out = append(out, c)
		}
	}
	return out
}
