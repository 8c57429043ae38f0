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
	exportKeyOutput string
	exportKeyStdin  bool
)

func init() {
	exportKeyCmd.Flags().StringVarP(&exportKeyOutput, "output", "o", "", "path to write the key file to")
	exportKeyCmd.Flags().BoolVar(&exportKeyStdin, "key-stdin", false, "read your private key from stdin instead of disk")
}

var exportKeyCmd = &cobra.Command{
	Use:   "export-key",
	Short: "Exports your private key for this vault to a file",
	Long: `Writes your private key for this vault to a key file so you can move it
to another machine. The key file is the only way Fieldseal carries a
private key between machines; guard it like the key itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export-key command")

		keyData, err := readKeyFromStdin(exportKeyStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read key from stdin: %v", err)
		}

		spinner, cleanup := startSpinner("Exporting key...", verbose)
		defer cleanup()

		result, err := workflows.ExportKey(context.Background(), workflows.ExportKeyOptions{
			OutputPath:     exportKeyOutput,
			PrivateKeyData: keyData,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrPrivateKeyNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " You have no private key for this vault\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fieldseal vault import-key") + " if you have a key file from another machine"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to export key: %v", err)
		}

		Logger.Infof("Export-key command completed successfully")

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Key for " + ui.Highlight.Sprint(result.VaultName) +
			" written to " + ui.Path.Sprint(result.OutputPath) + "\n" +
			ui.Warning.Sprint("!") + " Anyone holding this file can read everything sealed for you"
		return nil
	},
}
