package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lockFile     = ".lock"
	lockPoll     = 25 * time.Millisecond
	lockStaleAge = 10 * time.Minute
)

// acquireLock creates the directory lock file exclusively, polling until ctx
// is done. Lock files older than lockStaleAge are treated as abandoned.
func acquireLock(ctx context.Context, dir string) (func(), error) {
	path := filepath.Join(dir, lockFile)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, &IOError{Op: "lock", Path: path, Cause: err}
		}
		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > lockStaleAge {
			_ = os.Remove(path)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLocked, ctx.Err())
		case <-time.After(lockPoll):
		}
	}
}
