package types

import "time"

// RunReport is the final, always-emitted record of one pipeline run.
type RunReport struct {
	RunID        string        `json:"run_id"`
	BlueprintID  string        `json:"blueprint_id,omitempty"`
	Policy       string        `json:"policy"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Success      bool          `json:"success"`
	CanProceed   bool          `json:"can_proceed"`
	Aborted      bool          `json:"aborted,omitempty"`
	AbortReason  string        `json:"abort_reason,omitempty"`
	CheckpointID string        `json:"checkpoint_id,omitempty"`
	OutputDir    string        `json:"output_dir,omitempty"`
	Layers       []LayerResult `json:"layers"`
	Artifacts    []Artifact    `json:"artifacts,omitempty"`
}

// NeedsHumanReview reports whether any layer asked for review.
func (r *RunReport) NeedsHumanReview() bool {
	for _, l := range r.Layers {
		if l.NeedsHumanReview {
			return true
		}
	}
	return false
}
