package provision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// staleLockThreshold is the maximum age of a run lock before it is
// considered abandoned by a crashed run.
const staleLockThreshold = 30 * time.Minute

const lockName = ".isoterm.lock"

// ErrEnvironmentLocked means another run owns the environment root.
var ErrEnvironmentLocked = errors.New("environment is locked: another run may be in progress")

// Lock is the exclusive marker a run holds on its environment root.
type Lock struct {
	path string
	file *os.File
}

// acquireLock takes exclusive ownership of the environment root via an
// O_CREATE|O_EXCL lock file. A lock older than staleLockThreshold is
// treated as left over from a crash and replaced.
func acquireLock(root string) (*Lock, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create environment root: %w", err)
	}

	lockPath := filepath.Join(root, lockName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if stale, _ := isLockStale(lockPath); !stale {
			return nil, ErrEnvironmentLocked
		}
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			return nil, ErrEnvironmentLocked
		}
	}

	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

// Release gives up the lock. Safe to call after the environment root has
// already been removed by a rollback.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
	}
	return nil
}

func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > staleLockThreshold, nil
}
