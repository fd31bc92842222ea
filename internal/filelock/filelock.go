// Package filelock guards shared on-disk state of the bridge: the build
// root, which must not be reconfigured by two runs at once, and report
// files, which must never be visible half-written.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an exclusive advisory lock held for the duration of a
// validation run. Two concurrent runs over the same build root would
// interleave cmake caches, so the second run must fail fast instead.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// NewRunLock creates a lock file at path. The file is created on first
// acquisition and left in place afterwards.
func NewRunLock(path string) (*RunLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &RunLock{flock: flock.New(path), path: path}, nil
}

// TryAcquire attempts to take the lock without blocking. It returns false
// when another run already holds it.
func (l *RunLock) TryAcquire() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	return acquired, nil
}

// Release releases the lock.
func (l *RunLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to path via a temp file and rename, so readers
// never observe a partial report even if the writer is interrupted. The
// temp file lives next to the target to keep the rename on one
// filesystem.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}
