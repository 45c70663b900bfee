package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/blueprint"
)

func TestStageBlueprint(t *testing.T) {
	path, dir, err := StageBlueprint([]byte("id: x\n"), blueprint.FormatYAML)
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	assert.Equal(t, filepath.Join(dir, "blueprint.yaml"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id: x\n", string(data))
}
