package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"go.uber.org/zap"
)

func writeSecretsFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), FileMode); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	log := zap.NewNop()

	s := NewStore()
	for _, name := range []string{"github", "aws", "bank"} {
		if _, err := s.RegisterManual(name, testSecret, "Issuer", "alice"); err != nil {
			t.Fatalf("RegisterManual failed: %v", err)
		}
	}

	if err := saveStore(path, s, log); err != nil {
		t.Fatalf("saveStore failed: %v", err)
	}

	loaded, err := loadStore(path, log)
	if err != nil {
		t.Fatalf("loadStore failed: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", loaded.Len())
	}

	// Order survives the round trip.
	want := []string{"github", "aws", "bank"}
	for i, rec := range loaded.List(true) {
		if rec.Name != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], rec.Name)
		}
		if rec.Secret != testSecret {
			t.Errorf("secret lost for %q", rec.Name)
		}
		if rec.Issuer != "Issuer" || rec.Account != "alice" {
			t.Errorf("metadata lost for %q: %+v", rec.Name, rec)
		}
	}
}

func TestSaveDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")

	s := NewStore()
	if _, err := s.RegisterManual("github", testSecret, "", ""); err != nil {
		t.Fatalf("RegisterManual failed: %v", err)
	}
	if err := saveStore(path, s, zap.NewNop()); err != nil {
		t.Fatalf("saveStore failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("saved file is not valid JSON: %v", err)
	}
	for _, key := range []string{"secrets", "version", "last_update"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	var version string
	if err := json.Unmarshal(doc["version"], &version); err != nil || version != Version {
		t.Errorf("expected version %q, got %q (%v)", Version, version, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	if _, err := loadStore(path, zap.NewNop()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop()

	cases := []struct {
		name    string
		content string
	}{
		{"not json", "this is not json"},
		{"top-level null", "null"},
		{"top-level string", `"secrets"`},
		{"empty file", ""},
		{"top-level array", `[{"name": "a"}]`},
		{"secrets not array", `{"secrets": {"name": "a"}}`},
		{"element not object", `{"secrets": ["just a string"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "secrets.json")
			writeSecretsFile(t, path, tc.content)
			if _, err := loadStore(path, log); !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestLoadSkipsNamelessRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	writeSecretsFile(t, path, `{
    "secrets": [
        {"name": "good", "account": "", "issuer": "", "secret": "`+testSecret+`"},
        {"account": "orphan", "issuer": "", "secret": "AAAA"}
    ],
    "version": "1.0",
    "last_update": "2026-01-01T00:00:00.000000+00:00"
}`)

	s, err := loadStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("loadStore failed: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}
	if _, ok := s.Get("good"); !ok {
		t.Error("named record missing")
	}
}

func TestSaveRotatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.json")
	backupPath := filepath.Join(dir, "secrets.bak")
	log := zap.NewNop()

	s := NewStore()
	if _, err := s.RegisterManual("first", testSecret, "", ""); err != nil {
		t.Fatalf("RegisterManual failed: %v", err)
	}
	if err := saveStore(path, s, log); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// No backup yet: there was nothing to rotate.
	if _, err := os.Stat(backupPath); !os.IsNotExist(err) {
		t.Errorf("unexpected backup after first save: %v", err)
	}

	firstDoc, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read first save: %v", err)
	}

	if _, err := s.RegisterManual("second", testSecret, "", ""); err != nil {
		t.Fatalf("RegisterManual failed: %v", err)
	}
	if err := saveStore(path, s, log); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	backup, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("backup not created on second save: %v", err)
	}
	if string(backup) != string(firstDoc) {
		t.Error("backup does not hold the previous document")
	}

	// A third save keeps exactly one backup generation.
	if err := saveStore(path, s, log); err != nil {
		t.Fatalf("third save failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	bakCount := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".bak" {
			bakCount++
		}
	}
	if bakCount != 1 {
		t.Errorf("expected exactly 1 backup file, got %d", bakCount)
	}
}

func TestSaveFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "secrets.json")

	s := NewStore()
	if _, err := s.RegisterManual("a", testSecret, "", ""); err != nil {
		t.Fatalf("RegisterManual failed: %v", err)
	}
	if err := saveStore(path, s, zap.NewNop()); err != nil {
		t.Fatalf("saveStore failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != FileMode {
		t.Errorf("expected mode %o, got %o", FileMode, perm)
	}
}

func TestSiblingPath(t *testing.T) {
	cases := []struct {
		path   string
		suffix string
		want   string
	}{
		{"/x/secrets.json", ".bak", "/x/secrets.bak"},
		{"/x/secrets.json", ".lock", "/x/secrets.lock"},
		{"/x/secrets.json", ".tmp", "/x/secrets.tmp"},
		{"/x/noext", ".bak", "/x/noext.bak"},
	}
	for _, tc := range cases {
		if got := siblingPath(tc.path, tc.suffix); got != tc.want {
			t.Errorf("siblingPath(%q, %q) = %q, want %q", tc.path, tc.suffix, got, tc.want)
		}
	}
}
