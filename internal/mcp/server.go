// Package mcp implements the MCP (Model Context Protocol) server for
// totpctl. Tools operate on the same locked secrets file as the CLI;
// outputs carry token values and metadata, never stored secret material.
package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/forest6511/totpctl/pkg/store"
)

// serverVersion is reported in the MCP handshake.
const serverVersion = "1.0.0"

// Server represents the MCP server for totpctl.
type Server struct {
	server      *mcp.Server
	secretsFile string
	lockTimeout time.Duration
	policy      *Policy
	log         *zap.Logger
}

// ServerOptions contains configuration options for the MCP server.
type ServerOptions struct {
	// SecretsFile is the path of the default secrets file. If empty, the
	// store default under the user's home directory is used.
	SecretsFile string

	// LockTimeout bounds waiting for the secrets file lock per tool call.
	LockTimeout time.Duration

	// Logger receives server diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// NewServer creates a new MCP server instance. A missing or invalid policy
// file is not fatal: the server then runs in read-only mode, where only
// the listing and token tools are available.
func NewServer(opts *ServerOptions) (*Server, error) {
	if opts == nil {
		opts = &ServerOptions{}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	secretsFile := opts.SecretsFile
	if secretsFile == "" {
		var err error
		secretsFile, err = store.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("mcp: %w", err)
		}
	}

	policy, err := LoadPolicy(filepath.Dir(secretsFile))
	if err != nil {
		log.Warn("running in read-only mode without policy", zap.Error(err))
		policy = nil
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "totpctl",
			Version: serverVersion,
		},
		nil,
	)

	s := &Server{
		server:      mcpServer,
		secretsFile: secretsFile,
		lockTimeout: opts.LockTimeout,
		policy:      policy,
		log:         log,
	}
	s.registerTools()

	return s, nil
}

// config builds the store configuration for one tool call. Tools may point
// at an alternate secrets file per call; an empty override keeps the
// server default.
func (s *Server) config(secretsFile string) store.Config {
	path := s.secretsFile
	if secretsFile != "" {
		path = secretsFile
	}
	return store.Config{
		Path:        path,
		LockTimeout: s.lockTimeout,
		Logger:      s.log,
	}
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolRegisterSecret,
		Description: "Register TOTP secrets from otpauth:// enrollment URIs under the given name. Additional URIs get numbered suffixes. Returns the stored names, never secret values.",
	}, s.handleRegisterSecret)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGenerateToken,
		Description: "Generate the current 6-digit TOTP code for a registered secret name.",
	}, s.handleGenerateToken)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolListSecrets,
		Description: "List registered secret names with account and issuer metadata. Does NOT return secret values.",
	}, s.handleListSecrets)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolRemoveSecrets,
		Description: "Remove the named secrets. Names that are not registered are skipped. Returns the names actually removed.",
	}, s.handleRemoveSecrets)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolRenameSecret,
		Description: "Rename a registered secret, overwriting any existing entry under the new name.",
	}, s.handleRenameSecret)
}

// Run starts the MCP server using stdio transport. It returns when the
// transport closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server starting",
		zap.String("secrets_file", s.secretsFile),
		zap.Bool("read_only", s.policy == nil))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
