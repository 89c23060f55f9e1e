// Package lockfile implements an advisory cross-process file lock with a
// bounded acquisition wait.
//
// The lock is cooperative: it serializes access between holders that use
// this package against the same lock file, whether they live in one process
// or many. It does not stop a foreign process from editing the guarded file
// directly.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	// PollInterval is how often Acquire retries the non-blocking OS lock.
	PollInterval = 50 * time.Millisecond

	// FileMode is the permission applied to newly created lock files.
	FileMode = 0o600
)

// ErrTimeout is returned when the lock cannot be obtained within the
// caller's budget.
var ErrTimeout = errors.New("lockfile: timed out waiting for lock")

// Lock is an exclusive advisory lock on a single file. Each Lock owns its
// own file descriptor, so two Locks on the same path conflict even inside
// one process. Release is idempotent. The lock file itself is never
// deleted; only its locked state is cleared, and the next acquirer reuses
// the file.
type Lock struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// New returns an unheld lock for the given lock-file path.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Path returns the lock-file path.
func (l *Lock) Path() string { return l.path }

// Acquire blocks until the exclusive lock is obtained or timeout elapses,
// whichever comes first. On timeout it returns ErrTimeout and holds
// nothing. Acquiring a lock that is already held by this Lock is a no-op.
func (l *Lock) Acquire(timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f != nil {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, FileMode)
		if err != nil {
			return fmt.Errorf("lockfile: failed to open %s: %w", l.path, err)
		}

		locked, err := tryLock(f)
		if err != nil {
			f.Close()
			return fmt.Errorf("lockfile: failed to lock %s: %w", l.path, err)
		}
		if locked {
			l.f = f
			return nil
		}
		f.Close()

		if !time.Now().Add(PollInterval).Before(deadline) {
			return fmt.Errorf("%w: %s after %v", ErrTimeout, l.path, timeout)
		}
		time.Sleep(PollInterval)
	}
}

// IsLocked reports whether this Lock currently holds the file.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f != nil
}

// Release drops the lock. Calling Release when the lock is not held is a
// no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}

	unlockErr := unlock(l.f)
	closeErr := l.f.Close()
	l.f = nil

	if unlockErr != nil {
		return fmt.Errorf("lockfile: failed to unlock %s: %w", l.path, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("lockfile: failed to close %s: %w", l.path, closeErr)
	}
	return nil
}
