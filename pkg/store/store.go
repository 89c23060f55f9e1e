// Package store manages TOTP secret records persisted in a local JSON file.
//
// The durable state is a single JSON document; all reads and writes of it go
// through a Session, which holds an exclusive cross-process file lock for
// its whole lifetime. The in-memory Store is never shared between Sessions:
// each Session materializes its own from a fresh Load and discards it on
// Close.
package store

import (
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/totpctl/pkg/otpuri"
)

// SecretRecord is one registered TOTP secret. Name is the unique store key
// and always equals the key the record is filed under; Account and Issuer
// may be empty.
type SecretRecord struct {
	Name    string `json:"name"`
	Account string `json:"account"`
	Issuer  string `json:"issuer"`
	Secret  string `json:"secret,omitempty"`
}

// Store is an insertion-ordered mapping from secret name to record.
// Overwriting an existing name keeps its position; new names append.
// Store is not safe for concurrent use.
type Store struct {
	order   []string
	records map[string]*SecretRecord
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*SecretRecord)}
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// put inserts or overwrites rec under rec.Name.
func (s *Store) put(rec *SecretRecord) {
	if _, ok := s.records[rec.Name]; !ok {
		s.order = append(s.order, rec.Name)
	}
	s.records[rec.Name] = rec
}

// remove deletes name from both the map and the order slice.
func (s *Store) remove(name string) {
	if _, ok := s.records[name]; !ok {
		return
	}
	delete(s.records, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// normalizeName canonicalizes a secret name to NFC so register, rename and
// lookup agree on the composed form regardless of how the input was typed.
func normalizeName(name string) string {
	return norm.NFC.String(name)
}

// Register parses each URI in input order and stores the results under
// names derived from candidateName: the first record gets candidateName
// unchanged, the Nth gets candidateName_N. Existing entries with the same
// derived name are silently overwritten. If any URI fails to parse, nothing
// is registered and the parse error is returned unchanged.
func (s *Store) Register(candidateName string, uris []string) ([]*SecretRecord, error) {
	candidateName = normalizeName(candidateName)
	if candidateName == "" {
		return nil, ErrEmptyName
	}

	parsed := make([]otpuri.Secret, 0, len(uris))
	for _, raw := range uris {
		sec, err := otpuri.Parse(raw)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, sec)
	}

	registered := make([]*SecretRecord, 0, len(parsed))
	for i, sec := range parsed {
		name := candidateName
		if i > 0 {
			name = fmt.Sprintf("%s_%d", candidateName, i+1)
		}
		rec := &SecretRecord{
			Name:    name,
			Account: sec.Account,
			Issuer:  sec.Issuer,
			Secret:  sec.Secret,
		}
		s.put(rec)
		registered = append(registered, rec)
	}
	return registered, nil
}

// RegisterManual stores a secret supplied directly instead of via an
// enrollment URI. An existing entry with the same name is silently
// overwritten, matching Register.
func (s *Store) RegisterManual(name, secret, issuer, account string) (*SecretRecord, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if secret == "" {
		return nil, ErrEmptySecret
	}
	rec := &SecretRecord{
		Name:    name,
		Account: account,
		Issuer:  issuer,
		Secret:  secret,
	}
	s.put(rec)
	return rec, nil
}

// Get returns the secret value stored under name.
func (s *Store) Get(name string) (string, bool) {
	rec, ok := s.records[normalizeName(name)]
	if !ok || rec.Secret == "" {
		return "", false
	}
	return rec.Secret, true
}

// Record returns a copy of the full record stored under name.
func (s *Store) Record(name string) (*SecretRecord, bool) {
	rec, ok := s.records[normalizeName(name)]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// GenerateToken computes the current 6-digit TOTP code for name from the
// stored secret and wall-clock time (30-second steps, SHA-1, RFC 6238).
func (s *Store) GenerateToken(name string) (string, error) {
	secret, ok := s.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSecretNotFound, name)
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		return "", fmt.Errorf("store: failed to generate token for %q: %w", name, err)
	}
	return code, nil
}

// Remove deletes every listed name that is present and returns the subset
// actually removed. Absent names are silently skipped, not errors.
func (s *Store) Remove(names []string) []string {
	removed := []string{}
	for _, name := range names {
		name = normalizeName(name)
		if _, ok := s.records[name]; ok {
			s.remove(name)
			removed = append(removed, name)
		}
	}
	return removed
}

// Rename moves oldName to newName, overwriting any entry already stored
// under newName. It reports false and changes nothing when oldName is
// absent.
func (s *Store) Rename(oldName, newName string) bool {
	oldName = normalizeName(oldName)
	newName = normalizeName(newName)

	rec, ok := s.records[oldName]
	if !ok {
		return false
	}
	s.remove(oldName)
	rec.Name = newName
	s.put(rec)
	return true
}

// List returns copies of all records in key order. When includeSecret is
// false the Secret field is cleared on every returned record, so listings
// can never leak secret material.
func (s *Store) List(includeSecret bool) []*SecretRecord {
	out := make([]*SecretRecord, 0, len(s.order))
	for _, name := range s.order {
		rec := *s.records[name]
		if !includeSecret {
			rec.Secret = ""
		}
		out = append(out, &rec)
	}
	return out
}
