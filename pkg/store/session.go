package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/forest6511/totpctl/pkg/lockfile"
)

// DefaultLockTimeout bounds how long a Session waits for the cross-process
// lock before giving up.
const DefaultLockTimeout = 10 * time.Second

// DefaultPath returns the default secrets file location under the user's
// home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".totpctl", "data", "secrets.json"), nil
}

// Config carries the settings shared by every store operation. The zero
// value is usable: an empty Path falls back to DefaultPath, a zero
// LockTimeout to DefaultLockTimeout, and a nil Logger to a no-op logger.
type Config struct {
	Path        string
	LockTimeout time.Duration
	Logger      *zap.Logger
}

func (c Config) path() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	return DefaultPath()
}

func (c Config) timeout() time.Duration {
	if c.LockTimeout > 0 {
		return c.LockTimeout
	}
	return DefaultLockTimeout
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// Session is an exclusive handle on one secrets file. It owns the sibling
// .lock file from Open until Close; every load and save in between is
// serialized against other processes by that lock.
type Session struct {
	path string
	lock *lockfile.Lock
	log  *zap.Logger
}

// Open acquires the lock for the configured secrets file and returns a
// Session bound to it. It fails with lockfile.ErrTimeout when another
// holder does not release within the configured timeout. The secrets file
// itself does not have to exist yet.
func Open(cfg Config) (*Session, error) {
	path, err := cfg.path()
	if err != nil {
		return nil, err
	}
	log := cfg.logger()

	if err := os.MkdirAll(filepath.Dir(path), DirMode); err != nil {
		return nil, fmt.Errorf("store: failed to create %s: %w", filepath.Dir(path), err)
	}

	lock := lockfile.New(siblingPath(path, lockSuffix))
	if err := lock.Acquire(cfg.timeout()); err != nil {
		return nil, err
	}
	log.Debug("session opened", zap.String("path", path))

	return &Session{path: path, lock: lock, log: log}, nil
}

// Path returns the secrets file path this session is bound to.
func (s *Session) Path() string { return s.path }

// Load reads the secrets file into a fresh Store.
func (s *Session) Load() (*Store, error) {
	return loadStore(s.path, s.log)
}

// Save persists st to the secrets file, replacing it atomically and
// rotating the previous contents to the .bak sibling.
func (s *Session) Save(st *Store) error {
	return saveStore(s.path, st, s.log)
}

// Close releases the lock. It is safe to call more than once.
func (s *Session) Close() error {
	return s.lock.Release()
}
