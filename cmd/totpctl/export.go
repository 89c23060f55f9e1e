package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forest6511/totpctl/pkg/otpuri"
	"github.com/forest6511/totpctl/pkg/qr"
	"github.com/forest6511/totpctl/pkg/store"
)

// Export command flags
var (
	exportOutput string
	exportSize   int
	exportForce  bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output PNG path (required)")
	exportCmd.Flags().IntVar(&exportSize, "size", qr.DefaultSize, "Image edge length in pixels")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "Overwrite an existing file without confirmation")

	_ = exportCmd.MarkFlagRequired("output")
	exportCmd.ValidArgsFunction = completeSecretNames
}

// exportCmd renders a stored secret back into a scannable QR code image
var exportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Exports a secret as an enrollment QR code image",
	Long: `Exports a secret as a QR code PNG containing its otpauth:// enrollment
URI, suitable for scanning into another authenticator app.

The written image contains the secret value. Keep it as protected as the
secrets file itself and delete it after scanning.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		rec, ok, err := store.Record(storeConfig(), name)
		if err != nil {
			return fmt.Errorf("failed to load secret: %w", err)
		}
		if !ok || rec.Secret == "" {
			return fmt.Errorf("secret '%s' not found", name)
		}

		if !exportForce {
			if _, err := os.Stat(exportOutput); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", exportOutput)
			}
		}

		uri := otpuri.URI(rec.Account, rec.Issuer, rec.Secret)
		png, err := qr.Encode(uri, exportSize)
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOutput, png, store.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}

		fmt.Printf("Secret '%s' exported to %s\n", name, exportOutput)
		fmt.Fprintln(os.Stderr, "Warning: the image contains the secret value; delete it after scanning.")
		return nil
	},
}
