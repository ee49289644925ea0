package worker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning reports another worker holding the instance lock.
var ErrAlreadyRunning = errors.New("another aliyaal worker instance is already running")

// InstanceLock keeps two workers from sharing one log directory.
type InstanceLock struct {
	lock *flock.Flock
}

// AcquireInstanceLock takes the lock at path without blocking.
func AcquireInstanceLock(path string) (*InstanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return &InstanceLock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *InstanceLock) Path() string { return l.lock.Path() }

// Release unlocks the instance lock.
func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
