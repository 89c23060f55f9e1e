// Package main provides the totpctl CLI commands.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/forest6511/totpctl/internal/cli"
	"github.com/forest6511/totpctl/internal/logger"
	"github.com/forest6511/totpctl/pkg/qr"
	"github.com/forest6511/totpctl/pkg/store"
)

// Persistent flags
var (
	secretsFile string
	verbosity   int
	lockTimeout time.Duration

	log *zap.Logger
)

// Add command flags
var (
	addQRImage string
	addManual  bool
	addIssuer  string
	addAccount string
)

var rootCmd = &cobra.Command{
	Use:   "totpctl",
	Short: "totpctl manages TOTP secrets and generates one-time codes",
	Long: `A local TOTP secrets manager.

Secrets are registered from otpauth:// enrollment URIs, QR code images, or
manual entry, stored in a JSON file under your home directory, and used to
generate the 6-digit codes that authenticator apps show.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New(verbosity)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&secretsFile, "secrets-file", "s", "", "Path of the secrets file (default: ~/.totpctl/data/secrets.json)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().DurationVar(&lockTimeout, "lock-timeout", store.DefaultLockTimeout, "How long to wait for the secrets file lock")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(renameCmd)

	addCmd.Flags().StringVarP(&addQRImage, "qr", "q", "", "Path of a QR code image to register from")
	addCmd.Flags().BoolVarP(&addManual, "manual", "m", false, "Enter the secret value manually instead of scanning a QR image")
	addCmd.Flags().StringVar(&addIssuer, "issuer", "", "Issuer to record with a manually entered secret")
	addCmd.Flags().StringVar(&addAccount, "account", "", "Account to record with a manually entered secret")

	getCmd.ValidArgsFunction = completeSecretNames
	removeCmd.ValidArgsFunction = completeSecretNames
	renameCmd.ValidArgsFunction = completeSecretNames
}

// storeConfig builds the store configuration from the persistent flags.
func storeConfig() store.Config {
	return store.Config{
		Path:        secretsFile,
		LockTimeout: lockTimeout,
		Logger:      log,
	}
}

// addCmd registers new secrets from a QR image or manual entry
var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Registers TOTP secrets under a name",
	Long: `Registers TOTP secrets under a name.

With --qr, every QR code found in the image is decoded as an otpauth://
enrollment URI and registered: the first secret gets the given name, any
further ones get numbered suffixes (name_2, name_3, ...).

With --manual, the base32 secret value is read from the terminal without
echo (or from stdin when piped).

Registering a name that already exists replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		switch {
		case addQRImage != "" && addManual:
			return fmt.Errorf("--qr and --manual are mutually exclusive")

		case addManual:
			secret, err := readSecret("Enter secret value: ")
			if err != nil {
				return err
			}
			rec, err := store.RegisterManual(storeConfig(), name, secret, addIssuer, addAccount)
			if err != nil {
				return fmt.Errorf("failed to register secret: %w", err)
			}
			fmt.Printf("Secret '%s' registered\n", rec.Name)
			return nil

		case addQRImage != "":
			uris, err := qr.Decode(addQRImage)
			if err != nil {
				return err
			}
			if len(uris) == 0 {
				return fmt.Errorf("no QR code found in %s", addQRImage)
			}
			registered, err := store.RegisterURIs(storeConfig(), name, uris)
			if err != nil {
				return fmt.Errorf("failed to register secrets: %w", err)
			}
			for _, rec := range registered {
				fmt.Printf("Secret '%s' registered\n", rec.Name)
			}
			return nil

		default:
			return fmt.Errorf("either --qr or --manual is required")
		}
	},
}

// readSecret reads a secret value without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// getCmd prints the current TOTP code for a secret
var getCmd = &cobra.Command{
	Use:   "get [name]",
	Short: "Prints the current TOTP code for a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := store.GenerateToken(storeConfig(), args[0])
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

// listCmd lists registered secret names with their metadata
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists registered secret names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := store.List(storeConfig(), false)
		if err != nil {
			return fmt.Errorf("failed to list secrets: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No secrets registered")
			return nil
		}
		for _, rec := range records {
			line := rec.Name
			if rec.Issuer != "" {
				line += fmt.Sprintf(" [%s]", rec.Issuer)
			}
			if rec.Account != "" {
				line += fmt.Sprintf(" (%s)", rec.Account)
			}
			fmt.Println(line)
		}
		return nil
	},
}

// removeCmd removes secrets by name or glob pattern
var removeCmd = &cobra.Command{
	Use:   "remove [name|pattern]...",
	Short: "Removes secrets by name or glob pattern",
	Long: `Removes secrets. Arguments with glob characters (*?[) are expanded
against the registered names; plain names are removed directly. Names that
are not registered are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := store.Open(storeConfig())
		if err != nil {
			return err
		}
		defer sess.Close()

		st, err := sess.Load()
		if err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}

		names := make([]string, 0, st.Len())
		for _, rec := range st.List(false) {
			names = append(names, rec.Name)
		}
		targets, err := cli.ExpandPatterns(args, names)
		if err != nil {
			return err
		}

		removed := st.Remove(targets)
		if len(removed) == 0 {
			fmt.Println("No secrets removed")
			return nil
		}
		if err := sess.Save(st); err != nil {
			return fmt.Errorf("failed to save secrets: %w", err)
		}
		for _, name := range removed {
			fmt.Printf("Secret '%s' removed\n", name)
		}
		return nil
	},
}

// renameCmd renames a secret
var renameCmd = &cobra.Command{
	Use:   "rename [old] [new]",
	Short: "Renames a secret",
	Long: `Renames a secret. An existing secret under the new name is replaced.
Nothing changes when the old name is not registered.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		renamed, err := store.Rename(storeConfig(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to rename secret: %w", err)
		}
		if !renamed {
			fmt.Printf("Secret '%s' not found\n", args[0])
			return nil
		}
		fmt.Printf("Secret '%s' renamed to '%s'\n", args[0], args[1])
		return nil
	},
}
