// Package lock provides cross-process file locking over a workspace's
// data directory, so two codanna processes (index, watch, serve) never
// write the full-text index, vector segments, or resolver cache at the
// same time.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file's name within a workspace's data directory.
const FileName = ".lock"

// WorkspaceLock guards one workspace's data directory.
type WorkspaceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New returns a WorkspaceLock for dataDir, which must already exist (or be
// creatable). The lock file itself is created on first Acquire.
func New(dataDir string) *WorkspaceLock {
	return &WorkspaceLock{
		path:  filepath.Join(dataDir, FileName),
		flock: flock.New(filepath.Join(dataDir, FileName)),
	}
}

// TryAcquire attempts to take an exclusive, non-blocking lock. It returns
// false (not an error) when another process already holds it, so callers
// can surface a clear "already running" message instead of hanging.
func (l *WorkspaceLock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire workspace lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Release drops the lock. Safe to call on an unlocked WorkspaceLock.
func (l *WorkspaceLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release workspace lock: %w", err)
	}
	return nil
}

// Path returns the lock file's path.
func (l *WorkspaceLock) Path() string {
	return l.path
}
