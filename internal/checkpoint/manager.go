package checkpoint

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jonathan/module-builder/internal/types"
)

// DefaultRetain is the number of checkpoints kept.
const DefaultRetain = 10

// Files that make up one checkpoint identity.
const (
	metadataFile  = "checkpoint.json"
	blueprintFile = "blueprint.json"
	contextFile   = "context.json"
)

const (
	stagingPrefix = ".staging-"
	evictPrefix   = ".evict-"
)

// Snapshot is everything recorded for one checkpoint.
type Snapshot struct {
	Checkpoint types.Checkpoint      `json:"checkpoint"`
	Blueprint  *types.Blueprint      `json:"blueprint"`
	Context    *types.ProjectContext `json:"context"`
}

// Manager owns a checkpoint directory. Each checkpoint is one subdirectory
// named by a ULID, so lexical order is creation order. Create and eviction
// hold an in-process mutex and a lock file shared with other processes.
type Manager struct {
	dir     string
	retain  int
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewManager creates a Manager for dir, keeping at most retain checkpoints.
func NewManager(dir string, retain int) *Manager {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &Manager{
		dir:     dir,
		retain:  retain,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Dir returns the checkpoint directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create writes a checkpoint for the Blueprint and context taken at the given
// pipeline layer, then evicts the oldest checkpoints beyond the retention
// limit. The new checkpoint is staged and renamed into place, so a failed
// write leaves no partial identity. If only eviction fails, the checkpoint is
// returned together with an *IOError whose Op is "evict".
func (m *Manager) Create(ctx context.Context, bp *types.Blueprint, pc *types.ProjectContext, layer float64) (*types.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, &IOError{Op: "create", Path: m.dir, Cause: err}
	}
	release, err := acquireLock(ctx, m.dir)
	if err != nil {
		return nil, err
	}
	defer release()

	m.sweep()

	now := m.now().UTC()
	id, err := ulid.New(ulid.Timestamp(now), m.entropy)
	if err != nil {
		return nil, &IOError{Op: "create", Path: m.dir, Cause: fmt.Errorf("failed to generate id: %w", err)}
	}

	cp := types.Checkpoint{
		ID:          id.String(),
		BlueprintID: bp.ID,
		Layer:       layer,
		Timestamp:   ulid.Time(id.Time()).UTC(),
		State:       types.CheckpointStatePending,
		CanRollback: true,
		Files:       []string{metadataFile, blueprintFile, contextFile},
	}

	staging := filepath.Join(m.dir, stagingPrefix+cp.ID)
	if err := os.Mkdir(staging, 0755); err != nil {
		return nil, &IOError{Op: "create", Path: staging, Cause: err}
	}
	files := map[string]any{
		metadataFile:  cp,
		blueprintFile: bp,
		contextFile:   pc,
	}
	for name, v := range files {
		if err := writeJSON(filepath.Join(staging, name), v); err != nil {
			_ = os.RemoveAll(staging)
			return nil, &IOError{Op: "create", Path: filepath.Join(staging, name), Cause: err}
		}
	}
	final := filepath.Join(m.dir, cp.ID)
	if err := os.Rename(staging, final); err != nil {
		_ = os.RemoveAll(staging)
		return nil, &IOError{Op: "create", Path: final, Cause: err}
	}

	if err := m.evict(); err != nil {
		return &cp, err
	}
	return &cp, nil
}

// List returns checkpoint identities, newest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &IOError{Op: "list", Path: m.dir, Cause: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := ulid.ParseStrict(e.Name()); err != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Checkpoints returns the metadata of every retained checkpoint, newest first.
func (m *Manager) Checkpoints() ([]types.Checkpoint, error) {
	ids, err := m.List()
	if err != nil {
		return nil, err
	}
	out := make([]types.Checkpoint, 0, len(ids))
	for _, id := range ids {
		var cp types.Checkpoint
		if err := readJSON(filepath.Join(m.dir, id, metadataFile), &cp); err != nil {
			continue
		}
		out = append(out, cp)
	}
	return out, nil
}

// Restore loads a checkpoint. Restoration is advisory: it returns what was
// recorded so a person can compare it with the current tree, and never
// modifies the target project itself.
func (m *Manager) Restore(id string) (*Snapshot, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	dir := filepath.Join(m.dir, id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, &IOError{Op: "restore", Path: dir, Cause: err}
	}

	snap := &Snapshot{}
	if err := readJSON(filepath.Join(dir, metadataFile), &snap.Checkpoint); err != nil {
		return nil, &IOError{Op: "restore", Path: filepath.Join(dir, metadataFile), Cause: err}
	}
	if err := readJSON(filepath.Join(dir, blueprintFile), &snap.Blueprint); err != nil {
		return nil, &IOError{Op: "restore", Path: filepath.Join(dir, blueprintFile), Cause: err}
	}
	if err := readJSON(filepath.Join(dir, contextFile), &snap.Context); err != nil {
		return nil, &IOError{Op: "restore", Path: filepath.Join(dir, contextFile), Cause: err}
	}
	return snap, nil
}

// MarkApplied records that generation finished after the checkpoint and lists
// the project files it wrote.
func (m *Manager) MarkApplied(ctx context.Context, id string, written []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	release, err := acquireLock(ctx, m.dir)
	if err != nil {
		return err
	}
	defer release()

	path := filepath.Join(m.dir, id, metadataFile)
	var cp types.Checkpoint
	if err := readJSON(path, &cp); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return &IOError{Op: "update", Path: path, Cause: err}
	}
	cp.State = types.CheckpointStateApplied
	cp.Files = append([]string{metadataFile, blueprintFile, contextFile}, written...)

	tmp := path + ".tmp"
	if err := writeJSON(tmp, cp); err != nil {
		_ = os.Remove(tmp)
		return &IOError{Op: "update", Path: path, Cause: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &IOError{Op: "update", Path: path, Cause: err}
	}
	return nil
}

// Changes compares a snapshot with the current project: files that appeared
// since the checkpoint and files whose size changed.
func (s *Snapshot) Changes(current *types.ProjectContext) (added, modified []string) {
	if s.Context == nil || current == nil {
		return nil, nil
	}
	for _, f := range current.Files {
		before, existed := s.Context.FileSizes[f]
		if !existed {
			if !s.Context.HasFile(f) {
				added = append(added, f)
			}
			continue
		}
		if now, ok := current.FileSizes[f]; ok && now != before {
			modified = append(modified, f)
		}
	}
	return added, modified
}

// evict removes the oldest checkpoints beyond the retention limit. Each
// identity is renamed out of the ring first, so it disappears from List as a
// whole before its files are removed.
func (m *Manager) evict() error {
	ids, err := m.List()
	if err != nil {
		return &IOError{Op: "evict", Path: m.dir, Cause: err}
	}
	if len(ids) <= m.retain {
		return nil
	}
	for _, id := range ids[m.retain:] {
		src := filepath.Join(m.dir, id)
		dst := filepath.Join(m.dir, evictPrefix+id)
		if err := os.Rename(src, dst); err != nil {
			return &IOError{Op: "evict", Path: src, Cause: err}
		}
		if err := os.RemoveAll(dst); err != nil {
			return &IOError{Op: "evict", Path: dst, Cause: err}
		}
	}
	return nil
}

// sweep removes staging and eviction leftovers from interrupted runs. It must
// be called with the lock held.
func (m *Manager) sweep() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, stagingPrefix) || strings.HasPrefix(name, evictPrefix) {
			_ = os.RemoveAll(filepath.Join(m.dir, name))
		}
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
