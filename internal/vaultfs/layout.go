package vaultfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureVaultLayout ensures that the vault's bookkeeping directories exist.
func EnsureVaultLayout(vaultPath string) error {
	fieldsealDir := filepath.Join(vaultPath, ".fieldseal")
	recipientsDir := filepath.Join(fieldsealDir, "recipients")

	if _, err := os.Stat(fieldsealDir); os.IsNotExist(err) {
		if err := os.MkdirAll(recipientsDir, 0755); err != nil {
			return fmt.Errorf("failed to create .fieldseal/recipients: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check if .fieldseal directory exists: %w", err)
	} else {
		// Directory exists; recipients may still be missing after a partial init.
		if err := os.MkdirAll(recipientsDir, 0755); err != nil {
			return fmt.Errorf("failed to create .fieldseal/recipients: %w", err)
		}
	}

	return nil
}

// DoesVaultExist checks if the current working directory holds a vault's
// .fieldseal directory.
func DoesVaultExist() (bool, error) {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return false, fmt.Errorf("failed to get working directory: %w", err)
	}

	fieldsealDirectory := filepath.Join(workingDirectory, ".fieldseal")

	fileInfo, err := os.Stat(fieldsealDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			// Not an error condition: an uninitialized directory is an
			// expected possible outcome.
			return false, nil
		}
		return false, fmt.Errorf("failed to check if .fieldseal directory exists: %w", err)
	}

	if !fileInfo.IsDir() {
		return false, fmt.Errorf(".fieldseal exists but is not a directory")
	}

	return true, nil
}

// PartitionDir returns the directory holding a partition's sealed fields.
func PartitionDir(vaultPath string, partition string) string {
	return filepath.Join(vaultPath, partition)
}

// EnsurePartitionDir creates a partition's directory if needed.
func EnsurePartitionDir(vaultPath string, partition string) error {
	return os.MkdirAll(PartitionDir(vaultPath, partition), 0755)
}

// PartitionOf returns the partition a file belongs to: the first path
// component under the vault root. Returns false for files outside the
// vault or directly at its root.
func PartitionOf(vaultPath string, filePath string) (string, bool) {
	rel, err := filepath.Rel(vaultPath, filePath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
		return "", false
	}

	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		return "", false
	}
	if parts[0] == ".fieldseal" {
		return "", false
	}
	return parts[0], true
}
