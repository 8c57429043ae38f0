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
	accessPartition string
	accessFile      string
)

func init() {
	accessCmd.Flags().StringVarP(&accessPartition, "partition", "p", "", "limit the listing to one partition")
	accessCmd.Flags().StringVar(&accessFile, "file", "", "list the principals wrapped in this sealed file instead")
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Lists who can read what",
	Long: `Lists the vault's principals, their role, the partitions each one can
read, and whether they have published a public key. A principal without a
published key cannot receive sealed fields no matter what the vault config
says about them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting access command")
		spinner, cleanup := startSpinner("Reading vault access...", verbose)
		defer cleanup()

		result, err := workflows.Access(context.Background(), workflows.AccessOptions{
			Partition: accessPartition,
			File:      accessFile,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerrors.ErrVaultNotInitialized):
				spinner.FinalMSG = vaultNotInitializedMessage()
				return nil
			case errors.Is(err, kerrors.ErrPartitionNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
				return nil
			case errors.Is(err, kerrors.ErrEnvelopeMalformed):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to read vault access: %v", err)
		}

		spinner.FinalMSG = ""
		if len(result.Principals) == 0 {
			fmt.Println("No principals found.")
			return nil
		}

		fmt.Printf("Vault: %s\n\n", ui.Highlight.Sprint(result.VaultName))
		for _, p := range result.Principals {
			fmt.Printf("%s  %-25s  %-8s  %s\n",
				accessStatusMark(p.Status), p.Email, accessRole(p), accessPartitions(p))
		}
		fmt.Printf("\n%d active, %d pending, %d without a published key\n",
			result.Summary.Active, result.Summary.Pending, result.Summary.Keyless)
		return nil
	},
}

func accessStatusMark(status workflows.PrincipalStatus) string {
	switch status {
	case workflows.PrincipalStatusActive:
		return ui.Success.Sprint("✓")
	case workflows.PrincipalStatusPending:
		return ui.Warning.Sprint("○")
	default:
		return ui.Error.Sprint("✗")
	}
}

func accessRole(p workflows.PrincipalAccessInfo) string {
	if p.Admin {
		return "admin"
	}
	return "curator"
}

func accessPartitions(p workflows.PrincipalAccessInfo) string {
	if p.Status == workflows.PrincipalStatusKeyless {
		return ui.Muted.Sprint("no published key")
	}
	if len(p.Partitions) == 0 {
		return ui.Muted.Sprint("no partitions")
	}
	return strings.Join(p.Partitions, ", ")
}
