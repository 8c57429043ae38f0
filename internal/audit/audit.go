package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldseal/fieldseal/internal/configs"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Email of user performing action.
	UserUUID  string `json:"uuid"` // UUID of user performing action.
	Operation string `json:"op"`   // Operation name.

	// Optional fields depending on operation.
	Partition  string   `json:"partition,omitempty"`   // For seal/open/rewrap/grant/revoke.
	Files      []string `json:"files,omitempty"`       // For seal/open/rewrap.
	TargetUser string   `json:"target_user,omitempty"` // For grant/revoke.
	TargetUUID string   `json:"target_uuid,omitempty"` // For grant/revoke.
	FilesCount int      `json:"files_count,omitempty"` // For rewrap.
	OutputPath string   `json:"output_path,omitempty"` // For export-key.
	VaultName  string   `json:"vault_name,omitempty"`  // For init.
	VaultUUID  string   `json:"vault_uuid,omitempty"`  // For init.
}

// Log appends an entry to the audit log.
// If logging fails, it silently drops the entry.
// Operations should not fail just because audit logging failed.
func Log(entry Entry) {
	// Set timestamp if not already set.
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		// Vault not initialized, skip logging.
		return
	}

	// Open file for appending (create if doesn't exist).
	// Audit log should be readable by every vault principal.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogWithUser is a convenience function that populates user fields from config.
func LogWithUser(op string) Entry {
	entry := Entry{Operation: op}

	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return entry
	}

	entry.User = userConfig.User.Email
	entry.UserUUID = userConfig.User.UUID

	return entry
}

// LogPath returns the path to the audit log file.
// Returns empty string if the vault is not initialized.
func LogPath() string {
	if configs.VaultFieldsealSettings.VaultAuditPath != "" {
		return configs.VaultFieldsealSettings.VaultAuditPath
	}
	vaultPath := configs.VaultFieldsealSettings.VaultPath
	if vaultPath == "" {
		return ""
	}
	return filepath.Join(vaultPath, ".fieldseal", "audit.jsonl")
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
