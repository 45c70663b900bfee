package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/module-builder/internal/blueprint"
)

// StageBlueprint writes a submitted document to a temporary file so a run
// reads it like any other Blueprint. The caller removes dir.
func StageBlueprint(data []byte, format blueprint.Format) (path, dir string, err error) {
	dir, err = os.MkdirTemp("", "module-builder-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to stage blueprint: %w", err)
	}
	path = filepath.Join(dir, "blueprint."+string(format))
	if err := os.WriteFile(path, data, 0600); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("failed to stage blueprint: %w", err)
	}
	return path, dir, nil
}
