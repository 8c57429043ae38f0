package vaultfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SealedSuffix marks a file holding an envelope record.
const SealedSuffix = ".sealed"

// ResolveFiles takes user-provided paths/globs and returns matching files.
// If patterns is empty, returns nil (caller should use default behavior).
// forSealing=true finds plaintext field files, forSealing=false finds
// *.sealed envelope files.
func ResolveFiles(patterns []string, vaultPath string, forSealing bool) ([]string, error) {
	if len(patterns) == 0 {
		// No patterns provided, caller should use default behavior.
		return nil, nil
	}

	var files []string
	seen := make(map[string]bool) // Deduplicate.

	for _, pattern := range patterns {
		resolved, err := resolvePattern(pattern, vaultPath, forSealing)
		if err != nil {
			return nil, err
		}

		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no matching files found")
	}

	return files, nil
}

func resolvePattern(pattern string, vaultPath string, forSealing bool) ([]string, error) {
	// Convert relative patterns to absolute paths based on vault path.
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(vaultPath, pattern)
	}

	// Check if it's a directory.
	info, err := os.Stat(absPattern)
	if err == nil && info.IsDir() {
		return findFilesInDir(absPattern, forSealing)
	}

	// Check if it contains glob characters.
	if strings.ContainsAny(pattern, "*?[") {
		return expandGlob(pattern, vaultPath, forSealing)
	}

	// Treat as literal file path.
	if _, err := os.Stat(absPattern); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", pattern)
	}

	// Validate that the file matches the expected type.
	if forSealing && isSealedFile(absPattern) {
		return nil, fmt.Errorf("file is already sealed: %s", pattern)
	}
	if !forSealing && !isSealedFile(absPattern) {
		return nil, fmt.Errorf("file is not a sealed file: %s", pattern)
	}

	return []string{absPattern}, nil
}

func expandGlob(pattern string, vaultPath string, forSealing bool) ([]string, error) {
	// Use doublestar for ** support.
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(vaultPath, pattern)
	}

	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	// Filter to only include appropriate file types.
	var filtered []string
	for _, m := range matches {
		// Skip directories.
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}

		// Skip files inside the .fieldseal directory.
		if isInFieldsealDir(m) {
			continue
		}

		if forSealing && !isSealedFile(m) {
			filtered = append(filtered, m)
		} else if !forSealing && isSealedFile(m) {
			filtered = append(filtered, m)
		}
	}

	return filtered, nil
}

func findFilesInDir(dir string, forSealing bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip the .fieldseal directory.
			if d.Name() == ".fieldseal" {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip irregular files.
		if !d.Type().IsRegular() {
			return nil
		}

		if forSealing && !isSealedFile(path) {
			files = append(files, path)
		} else if !forSealing && isSealedFile(path) {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// FindSealedFiles returns every sealed file under the vault root, skipping
// the .fieldseal directory.
func FindSealedFiles(vaultPath string) ([]string, error) {
	return findFilesInDir(vaultPath, false)
}

// FindSealedFilesInPartition returns every sealed file inside one
// partition. A partition directory that does not exist yet simply has no
// sealed files.
func FindSealedFilesInPartition(vaultPath string, partition string) ([]string, error) {
	dir := PartitionDir(vaultPath, partition)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return findFilesInDir(dir, false)
}

// FindFieldFiles returns every plaintext field file inside the named
// partitions, skipping partitions whose directory does not exist yet.
func FindFieldFiles(vaultPath string, partitions []string) ([]string, error) {
	var files []string
	for _, partition := range partitions {
		dir := PartitionDir(vaultPath, partition)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		found, err := findFilesInDir(dir, true)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// SealedPath maps a plaintext field file to its sealed counterpart.
func SealedPath(path string) string {
	return path + SealedSuffix
}

// PlainPath maps a sealed file back to its plaintext counterpart.
func PlainPath(path string) string {
	return strings.TrimSuffix(path, SealedSuffix)
}

func isSealedFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), SealedSuffix)
}

func isInFieldsealDir(path string) bool {
	// Check if any component of the path is .fieldseal.
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, part := range parts {
		if part == ".fieldseal" {
			return true
		}
	}
	return false
}
