package cli

import (
	"reflect"
	"testing"
)

func TestExpandPatternsPlainNames(t *testing.T) {
	names := []string{"github", "aws", "bank"}

	// Plain arguments pass through whether or not they exist.
	result, err := ExpandPatterns([]string{"github", "missing"}, names)
	if err != nil {
		t.Fatalf("ExpandPatterns failed: %v", err)
	}
	want := []string{"github", "missing"}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("expected %v, got %v", want, result)
	}
}

func TestExpandPatternsGlob(t *testing.T) {
	names := []string{"work_github", "work_aws", "personal_bank"}

	result, err := ExpandPatterns([]string{"work_*"}, names)
	if err != nil {
		t.Fatalf("ExpandPatterns failed: %v", err)
	}
	want := []string{"work_github", "work_aws"}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("expected %v, got %v", want, result)
	}
}

func TestExpandPatternsGlobNoMatch(t *testing.T) {
	result, err := ExpandPatterns([]string{"zzz_*"}, []string{"github"})
	if err != nil {
		t.Fatalf("ExpandPatterns failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected no matches, got %v", result)
	}
}

func TestExpandPatternsDedupe(t *testing.T) {
	names := []string{"github", "gitlab"}

	result, err := ExpandPatterns([]string{"git*", "github"}, names)
	if err != nil {
		t.Fatalf("ExpandPatterns failed: %v", err)
	}
	want := []string{"github", "gitlab"}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("expected %v, got %v", want, result)
	}
}

func TestExpandPatternsInvalid(t *testing.T) {
	if _, err := ExpandPatterns([]string{"[unclosed"}, []string{"a"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
