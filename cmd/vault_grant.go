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
	grantPartition  string
	grantUserEmail  string
	grantPubkeyText string
	grantPubkeyFile string
	grantDryRun     bool
	grantKeyStdin   bool
)

func init() {
	grantCmd.Flags().StringVarP(&grantPartition, "partition", "p", "", "partition to grant")
	grantCmd.Flags().StringVarP(&grantUserEmail, "user", "u", "", "email of the principal to grant")
	grantCmd.Flags().StringVar(&grantPubkeyText, "pubkey", "", "the principal's public key in PEM form (for new principals)")
	grantCmd.Flags().StringVar(&grantPubkeyFile, "pubkey-file", "", "path to the principal's public key file (for new principals)")
	grantCmd.Flags().BoolVar(&grantDryRun, "dry-run", false, "preview the grant without making changes")
	grantCmd.Flags().BoolVar(&grantKeyStdin, "key-stdin", false, "read your private key from stdin instead of disk")

	if err := grantCmd.MarkFlagRequired("partition"); err != nil {
		panic(err)
	}
	if err := grantCmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}
}

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grants a principal access to a partition",
	Long: `Adds the principal to the partition's curators and rewraps every envelope
in the partition so they hold a wrapped key in each one. The grant is only
complete once the envelopes on disk include the new recipient.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting grant command")

		keyData, err := readKeyFromStdin(grantKeyStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read key from stdin: %v", err)
		}

		spinner, cleanup := startSpinner("Granting access...", verbose)
		defer cleanup()

		result, err := workflows.Grant(context.Background(), workflows.GrantOptions{
			Partition:      grantPartition,
			UserEmail:      grantUserEmail,
			PublicKeyText:  grantPubkeyText,
			PublicKeyFile:  grantPubkeyFile,
			DryRun:         grantDryRun,
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
			case errors.Is(err, kerrors.ErrPrincipalNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Pass " + ui.Code.Sprint("--pubkey-file") + " with their public key to add them to the vault"
				return nil
			case errors.Is(err, kerrors.ErrPublicKeyNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
				return nil
			case errors.Is(err, kerrors.ErrNotAuthorized), errors.Is(err, kerrors.ErrDecryptionFailed):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Cannot rewrap the partition's envelopes\n" +
					ui.Info.Sprint("→") + " Only a current recipient of the partition can grant access"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to grant access: %v", err)
		}

		if result.DryRun {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + fmt.Sprintf(" Would grant %s the %s partition and rewrap %d envelope(s)",
				grantUserEmail, grantPartition, result.RewrappedFiles)
			return nil
		}

		Logger.Infof("Grant command completed successfully for %s", grantUserEmail)

		finalMessage := ui.Success.Sprint("✓") + " " + ui.Highlight.Sprint(grantUserEmail) +
			" granted the " + ui.Code.Sprint(result.Partition) + " partition\n"
		if result.RewrappedFiles > 0 {
			finalMessage += ui.Info.Sprint("→") + fmt.Sprintf(" %d envelope(s) rewrapped to include them", result.RewrappedFiles)
		} else {
			finalMessage += ui.Info.Sprint("→") + " Nothing sealed yet; they will be a recipient of future seals"
		}
		spinner.FinalMSG = finalMessage
		return nil
	},
}
