package cmd

import (
	logger "github.com/fieldseal/fieldseal/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	VaultCmd = &cobra.Command{
		Use:   "vault",
		Short: "Manage sealed contact fields in the vault",
		Long:  `Provides sealing, opening, rewrapping, access management, and auditing of encrypted contact fields.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing vault command with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	VaultCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	VaultCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	VaultCmd.AddCommand(initCmd)
	VaultCmd.AddCommand(joinCmd)
	VaultCmd.AddCommand(createCmd)
	VaultCmd.AddCommand(sealCmd)
	VaultCmd.AddCommand(openCmd)
	VaultCmd.AddCommand(rewrapCmd)
	VaultCmd.AddCommand(grantCmd)
	VaultCmd.AddCommand(revokeCmd)
	VaultCmd.AddCommand(accessCmd)
	VaultCmd.AddCommand(exportKeyCmd)
	VaultCmd.AddCommand(importKeyCmd)
	VaultCmd.AddCommand(logCmd)
}

// resetVaultFlagState clears the changed markers on every vault flag for testing.
func resetVaultFlagState() {
	for _, sub := range VaultCmd.Commands() {
		sub.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
		})
	}
}

// GetVaultCmd returns the VaultCmd for testing.
func GetVaultCmd() *cobra.Command {
	return VaultCmd
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
