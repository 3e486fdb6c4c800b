//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/greenpi/watering-deploy/internal/logger"
)

// LockFilename marks that a deployment run is in progress in the project
// directory, to avoid two operators racing on the service state.
const LockFilename = ".watering-deploy.lock"

// staleLockAge is the age after which a leftover lock from a crashed run is
// ignored. Release builds on a Pi can take a while, so this is generous.
const staleLockAge = 30 * time.Minute

// ErrLocked is returned when another run already holds the lock.
var ErrLocked = errors.New("another deployment run is already in progress")

// RunLock is a marker-file lock covering one deployment run.
type RunLock struct {
	path string
}

// AcquireRunLock takes the run lock in the given directory. A fresh marker
// means another run is active; a stale one is removed with a warning.
func AcquireRunLock(ctx context.Context, dir string) (*RunLock, error) {
	path := filepath.Join(dir, LockFilename)

	if info, err := os.Stat(path); err == nil {
		if time.Since(info.ModTime()) < staleLockAge {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}

		logger.WarnKV(ctx, "Removing stale deployment lock", "path", path, "age", time.Since(info.ModTime()))

		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	marker, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create lock: %w", err)
	}

	if err := marker.Close(); err != nil {
		return nil, fmt.Errorf("close lock: %w", err)
	}

	return &RunLock{path: path}, nil
}

// Release removes the lock marker. Failures are logged, not escalated:
// a leftover marker only costs the next run a stale-lock warning.
func (l *RunLock) Release(ctx context.Context) {
	if l == nil {
		return
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Could not remove deployment lock", "path", l.path, "error", err)
	}
}
