package store

import (
	"errors"
	"fmt"
)

// The functions below are the one-shot operation facade used by the CLI
// and the MCP tools. Each opens a Session, performs a single load/mutate/
// save cycle under the lock, and closes the Session before returning.

// RegisterURIs parses the given enrollment URIs and stores them under names
// derived from candidateName, persisting the result. A missing secrets file
// is treated as an empty store so the very first registration bootstraps
// it; any other load failure aborts the registration.
func RegisterURIs(cfg Config, candidateName string, uris []string) ([]*SecretRecord, error) {
	sess, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	st, err := sess.Load()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		st = NewStore()
	}
	registered, err := st.Register(candidateName, uris)
	if err != nil {
		return nil, err
	}
	if err := sess.Save(st); err != nil {
		return nil, err
	}
	return registered, nil
}

// RegisterManual stores a directly supplied secret value under name and
// persists the result. Like RegisterURIs it bootstraps a missing secrets
// file.
func RegisterManual(cfg Config, name, secret, issuer, account string) (*SecretRecord, error) {
	sess, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	st, err := sess.Load()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		st = NewStore()
	}
	rec, err := st.RegisterManual(name, secret, issuer, account)
	if err != nil {
		return nil, err
	}
	if err := sess.Save(st); err != nil {
		return nil, err
	}
	return rec, nil
}

// GenerateToken returns the current TOTP code for name.
func GenerateToken(cfg Config, name string) (string, error) {
	sess, err := Open(cfg)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	st, err := sess.Load()
	if err != nil {
		return "", err
	}
	return st.GenerateToken(name)
}

// List returns the stored records in registration order. Secret values are
// included only when includeSecret is set.
func List(cfg Config, includeSecret bool) ([]*SecretRecord, error) {
	sess, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	st, err := sess.Load()
	if err != nil {
		return nil, err
	}
	return st.List(includeSecret), nil
}

// Remove deletes the listed names and returns the subset that was actually
// present. The file is rewritten only when at least one record was removed.
func Remove(cfg Config, names []string) ([]string, error) {
	sess, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	st, err := sess.Load()
	if err != nil {
		return nil, err
	}
	removed := st.Remove(names)
	if len(removed) == 0 {
		return removed, nil
	}
	if err := sess.Save(st); err != nil {
		return nil, err
	}
	return removed, nil
}

// Rename moves oldName to newName, overwriting any existing newName entry.
// It reports false, without touching the file, when oldName is absent.
func Rename(cfg Config, oldName, newName string) (bool, error) {
	if normalizeName(newName) == "" {
		return false, fmt.Errorf("%w: new name", ErrEmptyName)
	}
	sess, err := Open(cfg)
	if err != nil {
		return false, err
	}
	defer sess.Close()

	st, err := sess.Load()
	if err != nil {
		return false, err
	}
	if !st.Rename(oldName, newName) {
		return false, nil
	}
	if err := sess.Save(st); err != nil {
		return false, err
	}
	return true, nil
}

// Record returns a copy of the record stored under name, with its secret
// value, or false when absent.
func Record(cfg Config, name string) (*SecretRecord, bool, error) {
	sess, err := Open(cfg)
	if err != nil {
		return nil, false, err
	}
	defer sess.Close()

	st, err := sess.Load()
	if err != nil {
		return nil, false, err
	}
	rec, ok := st.Record(name)
	return rec, ok, nil
}
