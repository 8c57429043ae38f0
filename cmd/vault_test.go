package cmd

import (
	"testing"

	logger "github.com/fieldseal/fieldseal/internal/logging"
)

func TestVaultCmd_RegistersAllSubcommands(t *testing.T) {
	expected := []string{
		"init", "join", "create", "seal", "open", "rewrap",
		"grant", "revoke", "access", "export-key", "import-key", "log",
	}

	registered := make(map[string]bool)
	for _, sub := range VaultCmd.Commands() {
		registered[sub.Name()] = true
	}

	for _, name := range expected {
		if !registered[name] {
			t.Errorf("Subcommand %q is not registered on the vault command", name)
		}
	}
}

func TestResetVaultFlagState(t *testing.T) {
	SetLogger(logger.Logger{})

	flag := sealCmd.Flags().Lookup("dry-run")
	if flag == nil {
		t.Fatal("Expected seal command to have a dry-run flag")
	}

	if err := flag.Value.Set("true"); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}
	flag.Changed = true

	resetVaultFlagState()

	if flag.Changed {
		t.Error("Expected dry-run flag to be marked unchanged after reset")
	}
}
