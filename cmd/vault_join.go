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
	joinUserEmail string
	joinForce     bool
)

func init() {
	joinCmd.Flags().StringVar(&joinUserEmail, "email", "", "email identifying you to the vault's admins")
	joinCmd.Flags().BoolVar(&joinForce, "force", false, "replace an already-published key")
}

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Generates your key pair and publishes it to the vault",
	Long: `Generates an RSA key pair for this vault, keeps the private half in your
local key directory, and publishes the public half so admins can seal
fields for you. Joining grants nothing by itself; ask an admin to grant
you a partition.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting join command")
		spinner, cleanup := startSpinner("Generating key pair...", verbose)
		defer cleanup()

		result, err := workflows.Join(context.Background(), workflows.JoinOptions{
			UserEmail: joinUserEmail,
			Force:     joinForce,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrPublicKeyExists):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " You already published a key to this vault\n" +
					ui.Info.Sprint("→") + " Pass " + ui.Code.Sprint("--force") + " to replace it (envelopes wrapped for the old key become unreadable to you)"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to join vault: %v", err)
		}

		Logger.Infof("Join command completed successfully")

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Key pair generated and published to " + ui.Highlight.Sprint(result.VaultName) + "\n" +
			ui.Info.Sprint("→") + " Ask an admin to run " + ui.Code.Sprint("fieldseal vault grant -p <partition> -u <your email>")
		return nil
	},
}
