package projectctx

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/module-builder/internal/types"
)

// LoadFile reads a ProjectContext previously written with WriteFile, letting a
// run reuse an inventory instead of walking the tree again.
func LoadFile(path string) (*types.ProjectContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project context: %w", err)
	}
	var pc types.ProjectContext
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse project context %s: %w", path, err)
	}
	if pc.FileSizes == nil {
		pc.FileSizes = make(map[string]int64)
	}
	return &pc, nil
}

// WriteFile writes a ProjectContext as indented JSON.
func WriteFile(path string, pc *types.ProjectContext) error {
	data, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project context: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project context: %w", err)
	}
	return nil
}
