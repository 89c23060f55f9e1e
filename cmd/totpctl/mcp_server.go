package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forest6511/totpctl/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpServerCmd)
}

// mcpServerCmd starts the MCP server for AI coding assistant integration
var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Start the MCP server for AI coding assistant integration",
	Long: `Start the MCP server that gives AI coding assistants access to TOTP codes.

The server implements the Model Context Protocol (MCP) over stdio transport.
Tool outputs carry generated codes and metadata, never stored secret values.

Available tools:
  - totp_list_secrets:    List secret names with metadata (no values)
  - totp_generate_token:  Generate the current 6-digit code for a secret
  - totp_register_secret: Register secrets from otpauth:// URIs
  - totp_remove_secrets:  Remove secrets by name
  - totp_rename_secret:   Rename a secret

Policy:
  Create mcp-policy.yaml in the same directory as the secrets file to
  enable the mutating tools. Without a policy file the server runs read-only: only
  totp_list_secrets and totp_generate_token are available.

Example MCP configuration for Claude Code (~/.claude.json):
  {
    "mcpServers": {
      "totpctl": {
        "type": "stdio",
        "command": "/path/to/totpctl",
        "args": ["mcp-server"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer()
	},
}

func runMCPServer() error {
	server, err := mcp.NewServer(&mcp.ServerOptions{
		SecretsFile: secretsFile,
		LockTimeout: lockTimeout,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Graceful shutdown on SIGTERM/interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		// Don't report context canceled as an error
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
