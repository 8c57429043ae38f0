package cmd

import (
	"context"
	"errors"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/ui"
	"github.com/fieldseal/fieldseal/internal/workflows"

	"github.com/spf13/cobra"
)

var sealDryRun bool

func init() {
	sealCmd.Flags().BoolVar(&sealDryRun, "dry-run", false, "preview which files would be sealed")
}

var sealCmd = &cobra.Command{
	Use:   "seal [files or globs...]",
	Short: "Seals plaintext field files into envelopes",
	Long: `Seals each field file with a fresh key and IV, wrapping the key once per
recipient of the file's partition. With no arguments, every plaintext field
file in every partition is sealed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting seal command")
		spinner, cleanup := startSpinner("Sealing field files...", verbose)
		defer cleanup()

		result, err := workflows.Seal(context.Background(), workflows.SealOptions{
			FilePatterns: args,
			DryRun:       sealDryRun,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrNoFieldFiles):
				spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No field files to seal"
				return nil
			case errors.Is(err, kerrors.ErrPartitionNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Field files live inside partition directories"
				return nil
			case errors.Is(err, kerrors.ErrEmptyRecipientSet):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Sealing for nobody would make the data unreadable forever"
				return nil
			case errors.Is(err, kerrors.ErrPublicKeyNotFound), errors.Is(err, kerrors.ErrRecipientKey):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Every recipient needs a valid published key before anything is sealed"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to seal files: %v", err)
		}

		if result.DryRun {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " Would seal: " + ui.FormatPaths(result.SourceFiles)
			return nil
		}

		Logger.Infof("Seal command completed successfully. Created %d sealed files", len(result.SealedFiles))

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Field files sealed successfully!\n" +
			"The following files were created: " + ui.FormatPaths(result.SealedFiles) +
			ui.Info.Sprint("→") + " Sealed files are safe to sync or commit"
		return nil
	},
}
