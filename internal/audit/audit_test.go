package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldseal/fieldseal/internal/configs"
)

func setupAuditVault(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	fieldsealDir := filepath.Join(tempDir, ".fieldseal")
	if err := os.MkdirAll(fieldsealDir, 0755); err != nil {
		t.Fatalf("Failed to create .fieldseal dir: %v", err)
	}

	originalSettings := configs.VaultFieldsealSettings
	configs.VaultFieldsealSettings = &configs.VaultSettings{
		VaultPath:      tempDir,
		VaultAuditPath: filepath.Join(fieldsealDir, "audit.jsonl"),
	}
	t.Cleanup(func() {
		configs.VaultFieldsealSettings = originalSettings
	})

	return tempDir
}

func TestLog_CreatesFile(t *testing.T) {
	tempDir := setupAuditVault(t)

	entry := Entry{
		User:      "test@example.com",
		UserUUID:  "test-uuid",
		Operation: "seal",
		Partition: "clients",
		Files:     []string{"clients/phone.sealed"},
	}
	Log(entry)

	logPath := filepath.Join(tempDir, ".fieldseal", "audit.jsonl")
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatalf("Audit log file was not created")
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	setupAuditVault(t)

	Log(Entry{User: "alice@example.com", Operation: "seal"})
	Log(Entry{User: "bob@example.com", Operation: "open"})
	Log(Entry{User: "charlie@example.com", Operation: "grant"})

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	if entries[0].Operation != "seal" || entries[1].Operation != "open" || entries[2].Operation != "grant" {
		t.Errorf("Entries out of order: %v", entries)
	}
}

func TestLog_SetsTimestamp(t *testing.T) {
	setupAuditVault(t)

	Log(Entry{User: "alice@example.com", Operation: "seal"})

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	if entries[0].Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
	if !strings.HasSuffix(entries[0].Timestamp, "Z") {
		t.Errorf("Expected UTC timestamp, got %q", entries[0].Timestamp)
	}
}

func TestLog_PreservesExplicitTimestamp(t *testing.T) {
	setupAuditVault(t)

	Log(Entry{Timestamp: "2026-03-01T12:00:00.000000Z", Operation: "grant", TargetUUID: "uuid-b"})

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	if entries[0].Timestamp != "2026-03-01T12:00:00.000000Z" {
		t.Errorf("Expected explicit timestamp preserved, got %q", entries[0].Timestamp)
	}
	if entries[0].TargetUUID != "uuid-b" {
		t.Errorf("Expected target UUID preserved, got %q", entries[0].TargetUUID)
	}
}

func TestLog_NoVaultIsNoop(t *testing.T) {
	originalSettings := configs.VaultFieldsealSettings
	configs.VaultFieldsealSettings = &configs.VaultSettings{}
	defer func() {
		configs.VaultFieldsealSettings = originalSettings
	}()

	// Should not panic or create anything.
	Log(Entry{Operation: "seal"})
}

func TestReadEntries_MissingLog(t *testing.T) {
	setupAuditVault(t)

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}

	if entries != nil {
		t.Errorf("Expected nil entries for missing log, got %v", entries)
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"ts":"2026-03-01T12:00:00.000000Z","user":"alice@example.com","uuid":"uuid-a","op":"seal"}
{torn write
{"ts":"2026-03-01T12:01:00.000000Z","user":"bob@example.com","uuid":"uuid-b","op":"open"}

`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 valid entries, got %d", len(entries))
	}

	if entries[0].User != "alice@example.com" || entries[1].User != "bob@example.com" {
		t.Errorf("Unexpected entries: %v", entries)
	}
}

func TestParseEntries_Empty(t *testing.T) {
	entries, err := ParseEntries(nil)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if entries != nil {
		t.Errorf("Expected nil for empty data, got %v", entries)
	}
}
