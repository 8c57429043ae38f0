package cmd

import (
	"context"
	"errors"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/ui"
	"github.com/fieldseal/fieldseal/internal/workflows"

	"github.com/spf13/cobra"
)

var importKeyStdin bool

func init() {
	importKeyCmd.Flags().BoolVar(&importKeyStdin, "key-stdin", false, "read the key file contents from stdin")
}

var importKeyCmd = &cobra.Command{
	Use:   "import-key [file]",
	Short: "Imports a private key file for this vault",
	Long: `Installs a key file produced by export-key as your private key for this
vault. Passphrase-protected keys prompt for the passphrase. The matching
public key is derived and stored alongside, but other principals still see
whatever key you published to the vault.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import-key command")

		keyData, err := readKeyFromStdin(importKeyStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read key from stdin: %v", err)
		}
		if keyData == nil && len(args) == 0 {
			return Logger.ErrorfAndReturn("A key file path is required unless --key-stdin is set")
		}

		var filePath string
		if len(args) > 0 {
			filePath = args[0]
		}

		spinner, cleanup := startSpinner("Importing key...", verbose)
		defer cleanup()

		result, err := workflows.ImportKey(context.Background(), workflows.ImportKeyOptions{
			FilePath: filePath,
			KeyData:  keyData,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrKeyImport):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " The file is not a usable private key\n" +
					ui.Info.Sprint("→") + " Import a key file produced by " + ui.Code.Sprint("fieldseal vault export-key")
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to import key: %v", err)
		}

		Logger.Infof("Import-key command completed successfully")

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Key installed for " + ui.Highlight.Sprint(result.VaultName) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fieldseal vault open") + " to read your sealed fields"
		return nil
	},
}
