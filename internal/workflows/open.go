package workflows

import (
	"context"
	"fmt"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/crypt"
	"github.com/fieldseal/fieldseal/internal/envelope"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/utils"
	"github.com/fieldseal/fieldseal/internal/vaultfs"
)

// OpenOptions configures the open workflow.
type OpenOptions struct {
	// FilePatterns specifies sealed files to open. If empty, every sealed
	// file in the vault is opened.
	FilePatterns []string

	// DryRun previews which files would be opened without making changes.
	DryRun bool

	// PrivateKeyData contains the private key bytes when reading from stdin.
	// If nil, the private key is loaded from disk.
	PrivateKeyData []byte
}

// OpenResult contains the outcome of an open operation.
type OpenResult struct {
	// OpenedFiles lists the plaintext field files that were written.
	OpenedFiles []string

	// SourceFiles lists the .sealed files that were opened.
	SourceFiles []string

	// VaultPath is the root path of the vault.
	VaultPath string

	// DryRun indicates whether this was a dry-run (no files modified).
	DryRun bool
}

// Open decrypts sealed field files back to plaintext.
//
// For each envelope the caller's wrapped key is located by their principal
// UUID, unwrapped with their private key, and the ciphertext is opened
// under AES-GCM. An envelope without a slot for the caller fails with
// ErrNotAuthorized before any cryptography runs; a wrong key and a
// tampered envelope are indistinguishable, both failing with
// ErrDecryptionFailed.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrNoSealedFiles if no sealed files match the specified patterns.
// Returns ErrPrivateKeyNotFound if the user has no key for this vault.
func Open(ctx context.Context, opts OpenOptions) (*OpenResult, error) {
	vaultPath, userConfig, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	sealedFiles, err := resolveSealedFiles(opts.FilePatterns, vaultPath)
	if err != nil {
		return nil, err
	}
	if len(sealedFiles) == 0 {
		return nil, kerrors.ErrNoSealedFiles
	}

	privateKey, err := loadPrivateKey(opts.PrivateKeyData, vaultConfig.Vault.UUID)
	if err != nil {
		return nil, err
	}

	custodian := crypt.NewCustodian()
	custodian.LoadKey(privateKey)
	defer custodian.Clear()

	result := &OpenResult{
		SourceFiles: sealedFiles,
		VaultPath:   vaultPath,
		DryRun:      opts.DryRun,
	}

	result.OpenedFiles = make([]string, len(sealedFiles))
	for i, f := range sealedFiles {
		result.OpenedFiles[i] = vaultfs.PlainPath(f)
	}

	if opts.DryRun {
		return result, nil
	}

	provider := crypt.NewProvider()
	for i, file := range sealedFiles {
		env, err := readEnvelope(file)
		if err != nil {
			return nil, err
		}

		key, err := custodian.MustCurrent()
		if err != nil {
			return nil, err
		}

		plaintext, err := envelope.Open(provider, env, principalUUID(userConfig, vaultConfig), key)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", file, err)
		}

		if err := utils.AtomicWriteFile(result.OpenedFiles[i], []byte(plaintext), 0600); err != nil {
			return nil, fmt.Errorf("writing field file for %s: %w", file, err)
		}
	}

	auditEntry := audit.LogWithUser("open")
	auditEntry.Files = result.SourceFiles
	audit.Log(auditEntry)

	return result, nil
}

// resolveSealedFiles finds sealed files based on patterns or defaults to
// every sealed file in the vault.
func resolveSealedFiles(patterns []string, vaultPath string) ([]string, error) {
	if len(patterns) > 0 {
		resolved, err := vaultfs.ResolveFiles(patterns, vaultPath, false)
		if err != nil {
			return nil, fmt.Errorf("resolving file patterns: %w", err)
		}
		return resolved, nil
	}

	found, err := vaultfs.FindSealedFiles(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("finding sealed files: %w", err)
	}
	return found, nil
}
