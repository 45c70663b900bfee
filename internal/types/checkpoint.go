package types

import "time"

// Checkpoint is the metadata of a snapshot taken before generation.
type Checkpoint struct {
	ID          string    `json:"id"`
	BlueprintID string    `json:"blueprint_id"`
	Layer       float64   `json:"layer"`
	Timestamp   time.Time `json:"timestamp"`
	State       string    `json:"state"`
	CanRollback bool      `json:"can_rollback"`
	Files       []string  `json:"files"`
}

// Checkpoint states.
const (
	CheckpointStatePending = "pre_generation"
	CheckpointStateApplied = "applied"
)
