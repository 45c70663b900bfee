package types

import "time"

// LayerResult is the outcome of one pipeline phase. Layer is fractional for
// diagnostic phases inserted between integer phases.
type LayerResult struct {
	Layer            float64   `json:"layer"`
	Name             string    `json:"name"`
	Success          bool      `json:"success"`
	Output           any       `json:"output,omitempty"`
	Error            string    `json:"error,omitempty"`
	Remediation      string    `json:"remediation,omitempty"`
	DurationMS       int64     `json:"duration_ms"`
	Timestamp        time.Time `json:"timestamp"`
	NeedsHumanReview bool      `json:"needs_human_review,omitempty"`
	Skipped          bool      `json:"skipped,omitempty"`
}
