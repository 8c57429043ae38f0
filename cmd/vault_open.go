package cmd

import (
	"context"
	"errors"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/ui"
	"github.com/fieldseal/fieldseal/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	openDryRun   bool
	openKeyStdin bool
)

func init() {
	openCmd.Flags().BoolVar(&openDryRun, "dry-run", false, "preview which files would be opened")
	openCmd.Flags().BoolVar(&openKeyStdin, "key-stdin", false, "read your private key from stdin instead of disk")
}

var openCmd = &cobra.Command{
	Use:   "open [files or globs...]",
	Short: "Opens sealed field files back to plaintext",
	Long: `Unwraps your copy of each envelope's key with your private key and decrypts
the field value. With no arguments, every sealed file in the vault is opened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting open command")

		keyData, err := readKeyFromStdin(openKeyStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read key from stdin: %v", err)
		}

		spinner, cleanup := startSpinner("Opening sealed files...", verbose)
		defer cleanup()

		result, err := workflows.Open(context.Background(), workflows.OpenOptions{
			FilePatterns:   args,
			DryRun:         openDryRun,
			PrivateKeyData: keyData,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrNoSealedFiles):
				spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No sealed files to open"
				return nil
			case errors.Is(err, kerrors.ErrPrivateKeyNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " No private key found for this vault\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fieldseal vault import-key") + " to install your key"
				return nil
			case errors.Is(err, kerrors.ErrNotAuthorized):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " You are not a recipient of one of these envelopes\n" +
					ui.Info.Sprint("→") + " Ask a curator or admin to grant you the partition"
				return nil
			case errors.Is(err, kerrors.ErrDecryptionFailed):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Decryption failed\n" +
					ui.Info.Sprint("→") + " The key is wrong or the envelope has been tampered with"
				return nil
			case errors.Is(err, kerrors.ErrEnvelopeMalformed):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to open files: %v", err)
		}

		if result.DryRun {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " Would open: " + ui.FormatPaths(result.SourceFiles)
			return nil
		}

		Logger.Infof("Open command completed successfully. Wrote %d field files", len(result.OpenedFiles))

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Sealed files opened successfully!\n" +
			"The following files were written: " + ui.FormatPaths(result.OpenedFiles) +
			ui.Warning.Sprint("!") + " Plaintext field files are for local use only; do not sync or commit them"
		return nil
	},
}
