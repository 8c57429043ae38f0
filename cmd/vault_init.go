package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/ui"
	"github.com/fieldseal/fieldseal/internal/workflows"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	initVaultName string
	initUserEmail string
)

func init() {
	initCmd.Flags().StringVar(&initVaultName, "name", "", "name for the vault (defaults to directory name)")
	initCmd.Flags().StringVar(&initUserEmail, "email", "", "email identifying you as the founding principal")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes a vault in the current directory",
	Long: `Creates the .fieldseal directory structure, generates your RSA key pair,
publishes your public key, and records you as the vault's first admin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Initializing vault...", verbose)
		defer cleanup()

		result, err := workflows.Init(context.Background(), workflows.InitOptions{
			VaultName: initVaultName,
			UserEmail: initUserEmail,
		})
		if err != nil {
			if errors.Is(err, kerrors.ErrVaultAlreadyInitialized) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " A vault already exists here\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fieldseal vault create") + " to add a partition instead"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to initialize vault: %v", err)
		}

		spinner.Stop()

		// Display the Fieldseal ASCII art using go-figure.
		fmt.Println()
		banner := figure.NewColorFigure("Fieldseal", "alligator2", "green", true)
		banner.Print()
		fmt.Println()

		spinner.FinalMSG = color.GreenString("✓") + " Vault " + color.YellowString(result.VaultName) + " initialized successfully!\n" +
			color.CyanString("→") + " Run " + color.YellowString("fieldseal vault create <partition>") + " to create your first partition"
		return nil
	},
}
