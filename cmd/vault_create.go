package cmd

import (
	"context"
	"errors"
	"strings"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/ui"
	"github.com/fieldseal/fieldseal/internal/workflows"

	"github.com/spf13/cobra"
)

var createCurators []string

func init() {
	createCmd.Flags().StringSliceVar(&createCurators, "curator", nil, "email of a principal to assign as curator (repeatable)")
}

var createCmd = &cobra.Command{
	Use:   "create <partition>",
	Short: "Creates a partition in the vault",
	Long: `Creates a named partition whose sealed fields share one recipient set:
the vault admins plus the partition's curators.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting create command")
		spinner, cleanup := startSpinner("Creating partition...", verbose)
		defer cleanup()

		result, err := workflows.Create(context.Background(), workflows.CreateOptions{
			Partition:     args[0],
			CuratorEmails: createCurators,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrPartitionExists):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Partition " + ui.Code.Sprint(args[0]) + " already exists"
				return nil
			case errors.Is(err, kerrors.ErrPrincipalNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Curators must already be vault principals; grant them first"
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to create partition: %v", err)
		}

		Logger.Infof("Partition %s created with %d recipients", result.Partition, len(result.Recipients))

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Partition " + ui.Code.Sprint(result.Partition) + " created\n" +
			ui.Info.Sprint("→") + " Recipients: " + strings.Join(result.Recipients, ", ")
		return nil
	},
}

// vaultNotInitializedMessage is the shared hint for commands run outside a vault.
func vaultNotInitializedMessage() string {
	return ui.Error.Sprint("✗") + " No vault has been initialized here\n" +
		ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fieldseal vault init") + " first"
}
