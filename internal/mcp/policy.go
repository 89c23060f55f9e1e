package mcp

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Policy controls which MCP tools an AI agent may invoke. It is loaded
// from a yaml file next to the secrets data; without one the server runs
// in read-only mode.
type Policy struct {
	Version       int      `yaml:"version"`
	DefaultAction string   `yaml:"default_action"`
	DeniedTools   []string `yaml:"denied_tools"`
	AllowedTools  []string `yaml:"allowed_tools"`
}

// PolicyFileName is the name of the policy file.
const PolicyFileName = "mcp-policy.yaml"

// Policy action constants
const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// Errors
var (
	// ErrPolicyNotFound is returned when no policy file exists.
	ErrPolicyNotFound = errors.New("mcp: policy file not found")

	// ErrPolicyInsecure is returned when the policy file has permissions
	// beyond owner read/write.
	ErrPolicyInsecure = errors.New("mcp: policy file has insecure permissions")

	// ErrPolicySymlink is returned when the policy file is a symlink.
	ErrPolicySymlink = errors.New("mcp: policy file is a symlink")

	// ErrPolicyNotOwnedByUser is returned when the policy file is not owned
	// by the current user.
	ErrPolicyNotOwnedByUser = errors.New("mcp: policy file not owned by current user")

	// ErrToolDenied is returned when the policy rejects a tool invocation.
	ErrToolDenied = errors.New("mcp: tool denied by policy")
)

// LoadPolicy loads the MCP policy from dir. The file is opened with
// O_NOFOLLOW and checked via fstat on the open descriptor so a swap
// between check and read cannot bypass the permission and ownership
// requirements.
func LoadPolicy(dir string) (*Policy, error) {
	policyPath := filepath.Join(dir, PolicyFileName)

	f, err := openPolicyFile(policyPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mcp: failed to stat policy file: %w", err)
	}

	// Must be 0600.
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return nil, fmt.Errorf("%w: %o (expected 0600)", ErrPolicyInsecure, perm)
	}

	if err := checkFileOwnership(info); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("mcp: failed to read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(content, &policy); err != nil {
		return nil, fmt.Errorf("mcp: failed to parse policy file: %w", err)
	}

	if policy.Version != 1 {
		return nil, fmt.Errorf("mcp: unsupported policy version: %d", policy.Version)
	}

	// Default to deny if not specified.
	if policy.DefaultAction == "" {
		policy.DefaultAction = ActionDeny
	}

	return &policy, nil
}

// readOnlyTools are the tools available without a policy file. They never
// mutate the secrets file or return secret material.
var readOnlyTools = map[string]bool{
	ToolListSecrets:   true,
	ToolGenerateToken: true,
}

// Allows reports whether the named tool may be invoked under this policy.
// A nil policy means read-only mode. Denied entries win over allowed ones;
// tools matched by neither list fall back to DefaultAction.
func (p *Policy) Allows(tool string) bool {
	if p == nil {
		return readOnlyTools[tool]
	}
	for _, denied := range p.DeniedTools {
		if denied == tool {
			return false
		}
	}
	for _, allowed := range p.AllowedTools {
		if allowed == tool {
			return true
		}
	}
	return p.DefaultAction == ActionAllow
}
