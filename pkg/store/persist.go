package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Constants
const (
	// Version is the persisted document format version.
	Version = "1.0"

	// FileMode and DirMode give owner-only access to the secrets file and
	// its parent directory.
	FileMode = 0o600
	DirMode  = 0o700

	tmpSuffix    = ".tmp"
	backupSuffix = ".bak"
	lockSuffix   = ".lock"

	// lastUpdateLayout renders last_update with microsecond precision and
	// the local timezone offset.
	lastUpdateLayout = "2006-01-02T15:04:05.000000-07:00"
)

// document is the on-disk JSON shape. Elements of secrets stay raw during
// decoding so malformed shapes can be rejected precisely.
type document struct {
	Secrets    []json.RawMessage `json:"secrets"`
	Version    string            `json:"version"`
	LastUpdate string            `json:"last_update"`
}

// siblingPath swaps the extension of path for suffix, keeping the
// directory: /x/secrets.json -> /x/secrets.bak.
func siblingPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// loadStore reads the JSON document at path and materializes a Store from
// it. The top-level value must be an object and "secrets", when present,
// must be an array of objects; records without a name field are skipped.
func loadStore(path string, log *zap.Logger) (*Store, error) {
	// Re-tighten permissions when the file turns out to be group/world
	// accessible.
	if _, err := os.Stat(path); err == nil && !checkFilePermissions(path) {
		log.Warn("fixing insecure permissions on secrets file", zap.String("path", path))
		setSecurePermissions(path, log)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		case os.IsPermission(err):
			return nil, fmt.Errorf("%w: %s", ErrPermission, path)
		default:
			return nil, fmt.Errorf("store: failed to read %s: %w", path, err)
		}
	}

	// Unmarshal into a struct accepts null and leaves it zero-valued, so
	// the object requirement has to be checked up front.
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value in %s must be an object", ErrInvalidFormat, path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: unexpected %s in %s", ErrInvalidFormat, typeErr.Value, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	s := NewStore()
	for _, raw := range doc.Secrets {
		var rec SecretRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: secrets entries must be objects: %v", ErrInvalidFormat, err)
		}
		if rec.Name == "" {
			log.Debug("skipping record without name", zap.String("path", path))
			continue
		}
		s.put(&rec)
	}

	log.Info("secrets loaded", zap.String("path", path), zap.Int("count", s.Len()))
	return s, nil
}

// saveStore serializes s and atomically replaces path, rotating the
// previous file to a single .bak generation. The existing file is left
// untouched until the temporary write has fully succeeded.
func saveStore(path string, s *Store, log *zap.Logger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("store: failed to create %s: %w", dir, err)
	}

	doc := struct {
		Secrets    []*SecretRecord `json:"secrets"`
		Version    string          `json:"version"`
		LastUpdate string          `json:"last_update"`
	}{
		Secrets:    s.List(true),
		Version:    Version,
		LastUpdate: time.Now().Format(lastUpdateLayout),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("store: failed to encode secrets: %w", err)
	}

	tmpPath := siblingPath(path, tmpSuffix)
	if err := os.WriteFile(tmpPath, buf.Bytes(), FileMode); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermission, tmpPath)
		}
		return fmt.Errorf("store: failed to write %s: %w", tmpPath, err)
	}
	setSecurePermissions(tmpPath, log)

	if _, err := os.Stat(path); err == nil {
		backupPath := siblingPath(path, backupSuffix)
		if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: failed to remove old backup %s: %w", backupPath, err)
		}
		if err := os.Rename(path, backupPath); err != nil {
			return fmt.Errorf("store: failed to back up %s: %w", path, err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("store: failed to replace %s: %w", path, err)
	}
	// The rename can carry stale permissions from an earlier file.
	setSecurePermissions(path, log)

	log.Info("secrets saved", zap.String("path", path), zap.Int("count", s.Len()))
	return nil
}
