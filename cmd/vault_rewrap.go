package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/ui"
	"github.com/fieldseal/fieldseal/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	rewrapPartition string
	rewrapDryRun    bool
	rewrapKeyStdin  bool
)

func init() {
	rewrapCmd.Flags().StringVarP(&rewrapPartition, "partition", "p", "", "limit the rewrap to one partition")
	rewrapCmd.Flags().BoolVar(&rewrapDryRun, "dry-run", false, "preview which files would be rewrapped")
	rewrapCmd.Flags().BoolVar(&rewrapKeyStdin, "key-stdin", false, "read your private key from stdin instead of disk")
}

var rewrapCmd = &cobra.Command{
	Use:   "rewrap",
	Short: "Re-seals envelopes under the current recipient sets",
	Long: `Opens each envelope with your key and seals it again with a fresh key and
IV for the recipients the vault config names right now. Run this after
editing membership outside of grant/revoke, which rewrap automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rewrap command")

		keyData, err := readKeyFromStdin(rewrapKeyStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read key from stdin: %v", err)
		}

		spinner, cleanup := startSpinner("Rewrapping envelopes...", verbose)
		defer cleanup()

		result, err := workflows.Rewrap(context.Background(), workflows.RewrapOptions{
			Partition:      rewrapPartition,
			DryRun:         rewrapDryRun,
			PrivateKeyData: keyData,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrPartitionNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
				return nil
			case errors.Is(err, kerrors.ErrNoSealedFiles):
				spinner.FinalMSG = ui.Info.Sprint("ℹ") + " Nothing to rewrap"
				return nil
			case errors.Is(err, kerrors.ErrNotAuthorized), errors.Is(err, kerrors.ErrDecryptionFailed):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Cannot rewrap envelopes you cannot open\n" +
					ui.Info.Sprint("→") + " A recipient of the affected partitions must run the rewrap"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to rewrap: %v", err)
		}

		if result.DryRun {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " Would rewrap: " + ui.FormatPaths(result.RewrappedFiles)
			return nil
		}

		Logger.Infof("Rewrap command completed successfully. Rewrote %d envelopes", len(result.RewrappedFiles))

		spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Rewrapped %d envelope(s) under the current recipient sets", len(result.RewrappedFiles))
		return nil
	},
}
