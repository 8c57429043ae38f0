package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/ui"
	"github.com/fieldseal/fieldseal/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	revokePartition string
	revokeUserEmail string
	revokeAll       bool
	revokeDryRun    bool
	revokeKeyStdin  bool
)

func init() {
	revokeCmd.Flags().StringVarP(&revokePartition, "partition", "p", "", "partition to revoke")
	revokeCmd.Flags().StringVarP(&revokeUserEmail, "user", "u", "", "email of the principal losing access")
	revokeCmd.Flags().BoolVar(&revokeAll, "all", false, "remove the principal from the entire vault")
	revokeCmd.Flags().BoolVar(&revokeDryRun, "dry-run", false, "preview the revocation without making changes")
	revokeCmd.Flags().BoolVar(&revokeKeyStdin, "key-stdin", false, "read your private key from stdin instead of disk")

	if err := revokeCmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}
}

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revokes a principal's access to a partition",
	Long: `Removes the principal from the partition's curators and rewraps every
envelope in the partition so they no longer hold a wrapped key in any of
them. Old envelope bytes they captured before the revocation can still be
opened with their key; revocation protects everything sealed from now on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting revoke command")

		if revokePartition == "" && !revokeAll {
			return Logger.ErrorfAndReturn("Either --partition or --all is required")
		}

		keyData, err := readKeyFromStdin(revokeKeyStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read key from stdin: %v", err)
		}

		spinner, cleanup := startSpinner("Revoking access...", verbose)
		defer cleanup()

		result, err := workflows.Revoke(context.Background(), workflows.RevokeOptions{
			Partition:      revokePartition,
			UserEmail:      revokeUserEmail,
			All:            revokeAll,
			DryRun:         revokeDryRun,
			PrivateKeyData: keyData,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrPartitionNotFound), errors.Is(err, kerrors.ErrPrincipalNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
				return nil
			case errors.Is(err, kerrors.ErrSelfRevoke):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " You cannot revoke your own access\n" +
					ui.Info.Sprint("→") + " Another admin must revoke you"
				return nil
			case errors.Is(err, kerrors.ErrNotAuthorized), errors.Is(err, kerrors.ErrDecryptionFailed):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Cannot rewrap the affected envelopes\n" +
					ui.Info.Sprint("→") + " Only a current recipient of the affected partitions can revoke access"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to revoke access: %v", err)
		}

		if result.DryRun {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + fmt.Sprintf(" Would revoke %s from %s and rewrap %d envelope(s)",
				revokeUserEmail, strings.Join(result.Partitions, ", "), result.RewrappedFiles)
			return nil
		}

		Logger.Infof("Revoke command completed successfully for %s", revokeUserEmail)

		finalMessage := ui.Success.Sprint("✓") + " " + ui.Highlight.Sprint(revokeUserEmail) + " revoked"
		if len(result.Partitions) > 0 {
			finalMessage += " from " + ui.Code.Sprint(strings.Join(result.Partitions, ", "))
		}
		finalMessage += "\n" + ui.Info.Sprint("→") + fmt.Sprintf(" %d envelope(s) rewrapped without them\n", result.RewrappedFiles) +
			ui.Warning.Sprint("!") + " Copies they made before the revocation remain readable to them"
		spinner.FinalMSG = finalMessage
		return nil
	},
}
