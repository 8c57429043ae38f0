package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "record.sealed")

	if err := AtomicWriteFile(path, []byte("first"), 0600); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !bytes.Equal(data, []byte("first")) {
		t.Errorf("Expected %q, got: %q", "first", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got: %o", perm)
	}

	// Overwrite replaces content in one step.
	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("Expected no error on overwrite, got: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !bytes.Equal(data, []byte("second")) {
		t.Errorf("Expected %q, got: %q", "second", data)
	}

	// No temp files are left behind.
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file in the directory, got %d entries", len(entries))
	}
}

func TestAtomicWriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "record.sealed")
	if err := AtomicWriteFile(path, []byte("x"), 0600); err == nil {
		t.Error("Expected error for missing parent directory")
	}
}
