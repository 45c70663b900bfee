package integration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Result lists what a write stage changed, as project-relative paths.
type Result struct {
	Created  []string `json:"created"`
	Modified []string `json:"modified"`
	Skipped  []string `json:"skipped,omitempty"`
}

// Written returns every created or modified path.
func (r *Result) Written() []string {
	return append(append([]string(nil), r.Created...), r.Modified...)
}

// Writer applies FileOps under a project root as one stage. Every Apply call
// joins the stage until Commit; if any operation fails, files the stage
// overwrote are restored and files it created are removed.
type Writer struct {
	root    string
	journal []backup
}

// NewWriter creates a Writer rooted at the project directory.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// backup records how to undo one write. dirs lists the directories the
// write created, deepest first.
type backup struct {
	path    string
	existed bool
	content []byte
	mode    fs.FileMode
	dirs    []string
}

// Apply runs ops in order.
func (w *Writer) Apply(ctx context.Context, ops []FileOp) (*Result, error) {
	result := &Result{}

	fail := func(p string, cause error) (*Result, error) {
		rbErr := w.Rollback()
		return nil, &WriteError{Path: p, Cause: cause, RolledBack: rbErr == nil, RollbackErr: rbErr}
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return fail(op.Path, err)
		}
		dest, err := w.resolve(op.Path)
		if err != nil {
			return fail(op.Path, err)
		}

		b := backup{path: dest}
		existing, err := os.ReadFile(dest)
		switch {
		case err == nil:
			b.existed = true
			b.content = existing
			if info, statErr := os.Stat(dest); statErr == nil {
				b.mode = info.Mode().Perm()
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fail(op.Path, err)
		}

		content, skip, err := render(op, b.existed, string(existing))
		if err != nil {
			return fail(op.Path, err)
		}
		if skip {
			result.Skipped = append(result.Skipped, op.Path)
			continue
		}

		if !b.existed {
			b.dirs = w.missingDirs(filepath.Dir(dest))
		}
		w.journal = append(w.journal, b)
		if err := writeAtomic(dest, []byte(content), b.modeOr(0644)); err != nil {
			return fail(op.Path, err)
		}
		if b.existed {
			result.Modified = append(result.Modified, op.Path)
		} else {
			result.Created = append(result.Created, op.Path)
		}
	}
	return result, nil
}

func (b backup) modeOr(def fs.FileMode) fs.FileMode {
	if b.existed && b.mode != 0 {
		return b.mode
	}
	return def
}

// render computes the new content of a file. skip is true when the file
// already holds the change.
func render(op FileOp, existed bool, existing string) (content string, skip bool, err error) {
	switch op.Operation {
	case OpWrite:
		if existed && existing == op.Content {
			return "", true, nil
		}
		return op.Content, false, nil
	case OpInsertBefore:
		if !existed {
			return op.Content, false, nil
		}
		if op.Key != "" && strings.Contains(existing, op.Key) {
			return "", true, nil
		}
		i := strings.Index(existing, op.InsertAt)
		if i < 0 {
			return "", false, &MarkerNotFoundError{Path: op.Path, Marker: op.InsertAt}
		}
		lineStart := strings.LastIndex(existing[:i], "\n") + 1
		return existing[:lineStart] + op.Snippet + existing[lineStart:], false, nil
	default:
		return "", false, fmt.Errorf("unknown file operation: %s", op.Operation)
	}
}

// resolve maps a project-relative path under the root, refusing escapes.
func (w *Writer) resolve(p string) (string, error) {
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("path %s must be relative to the project root", p)
	}
	dest := filepath.Join(w.root, filepath.FromSlash(p))
	rel, err := filepath.Rel(w.root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the project root", p)
	}
	return dest, nil
}

// missingDirs returns dir and its ancestors below the root that do not exist
// yet, deepest first.
func (w *Writer) missingDirs(dir string) []string {
	var dirs []string
	root := filepath.Clean(w.root)
	for dir != root && dir != filepath.Dir(dir) {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		dirs = append(dirs, dir)
		dir = filepath.Dir(dir)
	}
	return dirs
}

// Commit ends the stage; later failures no longer undo its writes.
func (w *Writer) Commit() {
	w.journal = nil
}

// Rollback undoes every write of the stage, newest first.
func (w *Writer) Rollback() error {
	journal := w.journal
	w.journal = nil

	var errs []error
	for i := len(journal) - 1; i >= 0; i-- {
		b := journal[i]
		if b.existed {
			if err := writeAtomic(b.path, b.content, b.modeOr(0644)); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
		for _, dir := range b.dirs {
			if err := removeEmptyDir(dir); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// removeEmptyDir removes dir unless something else was written into it.
func removeEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.Remove(dir)
}

// writeAtomic writes through a temp file in the same directory and renames it
// into place.
func writeAtomic(dest string, data []byte, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
