package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/forest6511/totpctl/pkg/store"
)

// Tool names
const (
	ToolRegisterSecret = "totp_register_secret"
	ToolGenerateToken  = "totp_generate_token"
	ToolListSecrets    = "totp_list_secrets"
	ToolRemoveSecrets  = "totp_remove_secrets"
	ToolRenameSecret   = "totp_rename_secret"
)

// maxSecretNameLength caps names accepted through tool inputs.
const maxSecretNameLength = 100

// RegisterSecretInput represents input for totp_register_secret.
type RegisterSecretInput struct {
	Name        string   `json:"name"`
	URIs        []string `json:"uris"`
	SecretsFile string   `json:"secrets_file,omitempty"`
}

// RegisterSecretOutput represents output for totp_register_secret.
type RegisterSecretOutput struct {
	Registered []SecretInfo `json:"registered"`
}

// SecretInfo represents metadata for a stored secret (no value).
type SecretInfo struct {
	Name    string `json:"name"`
	Account string `json:"account,omitempty"`
	Issuer  string `json:"issuer,omitempty"`
}

// GenerateTokenInput represents input for totp_generate_token.
type GenerateTokenInput struct {
	Name        string `json:"name"`
	SecretsFile string `json:"secrets_file,omitempty"`
}

// GenerateTokenOutput represents output for totp_generate_token.
type GenerateTokenOutput struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// ListSecretsInput represents input for totp_list_secrets.
type ListSecretsInput struct {
	SecretsFile string `json:"secrets_file,omitempty"`
}

// ListSecretsOutput represents output for totp_list_secrets.
type ListSecretsOutput struct {
	Secrets []SecretInfo `json:"secrets"`
}

// RemoveSecretsInput represents input for totp_remove_secrets.
type RemoveSecretsInput struct {
	Names       []string `json:"names"`
	SecretsFile string   `json:"secrets_file,omitempty"`
}

// RemoveSecretsOutput represents output for totp_remove_secrets.
type RemoveSecretsOutput struct {
	Removed []string `json:"removed"`
}

// RenameSecretInput represents input for totp_rename_secret.
type RenameSecretInput struct {
	OldName     string `json:"old_name"`
	NewName     string `json:"new_name"`
	SecretsFile string `json:"secrets_file,omitempty"`
}

// RenameSecretOutput represents output for totp_rename_secret.
type RenameSecretOutput struct {
	Renamed bool   `json:"renamed"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// validateSecretName rejects empty and oversized names before they reach
// the store.
func validateSecretName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(name) > maxSecretNameLength {
		return fmt.Errorf("%s too long (max %d)", field, maxSecretNameLength)
	}
	return nil
}

func (s *Server) checkPolicy(tool string) error {
	if !s.policy.Allows(tool) {
		return fmt.Errorf("%w: %s", ErrToolDenied, tool)
	}
	return nil
}

func secretInfos(records []*store.SecretRecord) []SecretInfo {
	infos := make([]SecretInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, SecretInfo{
			Name:    rec.Name,
			Account: rec.Account,
			Issuer:  rec.Issuer,
		})
	}
	return infos
}

// handleRegisterSecret handles the totp_register_secret tool call.
func (s *Server) handleRegisterSecret(_ context.Context, _ *mcp.CallToolRequest, input RegisterSecretInput) (*mcp.CallToolResult, RegisterSecretOutput, error) {
	if err := s.checkPolicy(ToolRegisterSecret); err != nil {
		return nil, RegisterSecretOutput{}, err
	}
	if err := validateSecretName("name", input.Name); err != nil {
		return nil, RegisterSecretOutput{}, err
	}
	if len(input.URIs) == 0 {
		return nil, RegisterSecretOutput{}, errors.New("uris is required")
	}

	registered, err := store.RegisterURIs(s.config(input.SecretsFile), input.Name, input.URIs)
	if err != nil {
		return nil, RegisterSecretOutput{}, fmt.Errorf("failed to register secrets: %w", err)
	}

	return nil, RegisterSecretOutput{Registered: secretInfos(registered)}, nil
}

// handleGenerateToken handles the totp_generate_token tool call.
func (s *Server) handleGenerateToken(_ context.Context, _ *mcp.CallToolRequest, input GenerateTokenInput) (*mcp.CallToolResult, GenerateTokenOutput, error) {
	if err := s.checkPolicy(ToolGenerateToken); err != nil {
		return nil, GenerateTokenOutput{}, err
	}
	if err := validateSecretName("name", input.Name); err != nil {
		return nil, GenerateTokenOutput{}, err
	}

	token, err := store.GenerateToken(s.config(input.SecretsFile), input.Name)
	if err != nil {
		return nil, GenerateTokenOutput{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return nil, GenerateTokenOutput{Name: input.Name, Token: token}, nil
}

// handleListSecrets handles the totp_list_secrets tool call.
func (s *Server) handleListSecrets(_ context.Context, _ *mcp.CallToolRequest, input ListSecretsInput) (*mcp.CallToolResult, ListSecretsOutput, error) {
	if err := s.checkPolicy(ToolListSecrets); err != nil {
		return nil, ListSecretsOutput{}, err
	}

	records, err := store.List(s.config(input.SecretsFile), false)
	if err != nil {
		return nil, ListSecretsOutput{}, fmt.Errorf("failed to list secrets: %w", err)
	}

	return nil, ListSecretsOutput{Secrets: secretInfos(records)}, nil
}

// handleRemoveSecrets handles the totp_remove_secrets tool call.
func (s *Server) handleRemoveSecrets(_ context.Context, _ *mcp.CallToolRequest, input RemoveSecretsInput) (*mcp.CallToolResult, RemoveSecretsOutput, error) {
	if err := s.checkPolicy(ToolRemoveSecrets); err != nil {
		return nil, RemoveSecretsOutput{}, err
	}
	if len(input.Names) == 0 {
		return nil, RemoveSecretsOutput{}, errors.New("names is required")
	}
	for _, name := range input.Names {
		if err := validateSecretName("name", name); err != nil {
			return nil, RemoveSecretsOutput{}, err
		}
	}

	removed, err := store.Remove(s.config(input.SecretsFile), input.Names)
	if err != nil {
		return nil, RemoveSecretsOutput{}, fmt.Errorf("failed to remove secrets: %w", err)
	}

	return nil, RemoveSecretsOutput{Removed: removed}, nil
}

// handleRenameSecret handles the totp_rename_secret tool call.
func (s *Server) handleRenameSecret(_ context.Context, _ *mcp.CallToolRequest, input RenameSecretInput) (*mcp.CallToolResult, RenameSecretOutput, error) {
	if err := s.checkPolicy(ToolRenameSecret); err != nil {
		return nil, RenameSecretOutput{}, err
	}
	if err := validateSecretName("old_name", input.OldName); err != nil {
		return nil, RenameSecretOutput{}, err
	}
	if err := validateSecretName("new_name", input.NewName); err != nil {
		return nil, RenameSecretOutput{}, err
	}
	if input.OldName == input.NewName {
		return nil, RenameSecretOutput{}, errors.New("old_name and new_name must differ")
	}

	renamed, err := store.Rename(s.config(input.SecretsFile), input.OldName, input.NewName)
	if err != nil {
		return nil, RenameSecretOutput{}, fmt.Errorf("failed to rename secret: %w", err)
	}

	return nil, RenameSecretOutput{
		Renamed: renamed,
		OldName: input.OldName,
		NewName: input.NewName,
	}, nil
}
