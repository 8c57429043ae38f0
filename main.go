package main

import (
	"fmt"
	"os"

	"github.com/fieldseal/fieldseal/cmd"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fieldseal",
	Short: "Fieldseal - A CLI for sealing sensitive contact fields with per-recipient envelopes.",
	Long: `Fieldseal keeps the sensitive fields of a shared contact vault encrypted
at rest, so a group can collaborate on the vault while only the right
people can read each field.

Features:
  - Seal fields with fresh envelopes wrapped for every current recipient
  - Partition the vault so different curators see different fields
  - Grant and revoke access with an immediate rewrap of the affected envelopes
  - Audit every operation in an append-only log

Usage:
  fieldseal <command> [flags]

Available Commands:
  vault    Manage sealed contact fields

Run 'fieldseal help <command>' for more details on a specific command.
`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to Fieldseal! Run 'fieldseal --help' to see available commands.")
	},
}

func main() {
	rootCmd.AddCommand(cmd.VaultCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
