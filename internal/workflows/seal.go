package workflows

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/configs"
	"github.com/fieldseal/fieldseal/internal/crypt"
	"github.com/fieldseal/fieldseal/internal/envelope"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/vaultfs"
)

// SealOptions configures the seal workflow.
type SealOptions struct {
	// FilePatterns specifies field files to seal. If empty, every
	// plaintext field file in every partition is sealed.
	FilePatterns []string

	// DryRun previews which files would be sealed without making changes.
	DryRun bool
}

// SealResult contains the outcome of a seal operation.
type SealResult struct {
	// SealedFiles lists the .sealed files that were created.
	SealedFiles []string

	// SourceFiles lists the field files that were sealed.
	SourceFiles []string

	// VaultPath is the root path of the vault.
	VaultPath string

	// DryRun indicates whether this was a dry-run (no files modified).
	DryRun bool
}

// Seal seals plaintext field files into envelope records.
//
// Each file gets a fresh symmetric key and IV, and the key is wrapped once
// per recipient of the file's partition (the vault admins plus that
// partition's curators). Sealing never needs the caller's private key;
// it only uses published public keys. The envelope is written atomically
// next to the source file with a .sealed extension.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrNoFieldFiles if no field files match the specified patterns.
// Returns ErrPartitionNotFound if a file sits outside any configured partition.
// Returns ErrEmptyRecipientSet if a partition has no recipients at all.
func Seal(ctx context.Context, opts SealOptions) (*SealResult, error) {
	vaultPath, _, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	fieldFiles, err := resolveFieldFiles(opts.FilePatterns, vaultPath, vaultConfig)
	if err != nil {
		return nil, err
	}
	if len(fieldFiles) == 0 {
		return nil, kerrors.ErrNoFieldFiles
	}

	directory := vaultDirectory(vaultConfig)
	provider := crypt.NewProvider()

	// Resolve each partition's recipients once, before touching any file.
	resolved := make(map[string][]envelope.Recipient)
	partitions := make([]string, len(fieldFiles))
	for i, file := range fieldFiles {
		partition, ok := vaultfs.PartitionOf(vaultPath, file)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not inside a partition", kerrors.ErrPartitionNotFound, file)
		}
		if _, done := resolved[partition]; !done {
			recipientList, err := directory.ResolveRecipients(partition)
			if err != nil {
				return nil, err
			}
			resolved[partition] = recipientList
		}
		partitions[i] = partition
	}

	result := &SealResult{
		SourceFiles: fieldFiles,
		VaultPath:   vaultPath,
		DryRun:      opts.DryRun,
	}

	result.SealedFiles = make([]string, len(fieldFiles))
	for i, f := range fieldFiles {
		result.SealedFiles[i] = vaultfs.SealedPath(f)
	}

	if opts.DryRun {
		return result, nil
	}

	for i, file := range fieldFiles {
		plaintext, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading field file %s: %w", file, err)
		}

		env, err := envelope.Seal(provider, string(plaintext), resolved[partitions[i]])
		if err != nil {
			return nil, fmt.Errorf("sealing %s: %w", file, err)
		}

		if err := writeEnvelope(result.SealedFiles[i], env); err != nil {
			return nil, fmt.Errorf("writing envelope for %s: %w", file, err)
		}
	}

	auditEntry := audit.LogWithUser("seal")
	auditEntry.Files = result.SealedFiles
	audit.Log(auditEntry)

	return result, nil
}

// resolveFieldFiles finds plaintext field files based on patterns or
// defaults to every field file in the configured partitions.
func resolveFieldFiles(patterns []string, vaultPath string, vaultConfig *configs.VaultConfig) ([]string, error) {
	if len(patterns) > 0 {
		resolved, err := vaultfs.ResolveFiles(patterns, vaultPath, true)
		if err != nil {
			return nil, fmt.Errorf("resolving file patterns: %w", err)
		}
		return resolved, nil
	}

	partitions := make([]string, 0, len(vaultConfig.Partitions))
	for name := range vaultConfig.Partitions {
		partitions = append(partitions, name)
	}
	sort.Strings(partitions)

	found, err := vaultfs.FindFieldFiles(vaultPath, partitions)
	if err != nil {
		return nil, fmt.Errorf("finding field files: %w", err)
	}
	return found, nil
}
