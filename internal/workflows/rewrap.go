package workflows

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/crypt"
	"github.com/fieldseal/fieldseal/internal/envelope"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/recipients"
	"github.com/fieldseal/fieldseal/internal/vaultfs"
)

// RewrapOptions configures the rewrap workflow.
type RewrapOptions struct {
	// Partition limits the rewrap to one partition. If empty, every
	// sealed file in the vault is rewrapped.
	Partition string

	// DryRun previews which files would be rewrapped without making changes.
	DryRun bool

	// PrivateKeyData contains the private key bytes when reading from stdin.
	PrivateKeyData []byte
}

// RewrapResult contains the outcome of a rewrap operation.
type RewrapResult struct {
	// RewrappedFiles lists the sealed files that were rewritten.
	RewrappedFiles []string

	// VaultPath is the root path of the vault.
	VaultPath string

	// DryRun indicates whether this was a dry-run (no files modified).
	DryRun bool
}

// Rewrap re-seals envelopes under their partition's current recipient set.
//
// Each envelope is opened with the caller's key, then sealed again with a
// fresh symmetric key and IV for the recipients the vault config names
// right now. This is how membership edits become real: an envelope's
// wrapped-key set is the only access control that counts, and rewrapping
// is what brings it in line with the config.
//
// All replacement envelopes are computed in memory before the first write,
// so a failure partway through resolution or decryption leaves every file
// untouched. The caller must be a recipient of everything being rewrapped.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrPartitionNotFound if the named partition does not exist.
// Returns ErrNoSealedFiles if nothing needs rewrapping.
// Returns ErrNotAuthorized if the caller cannot open one of the envelopes.
func Rewrap(ctx context.Context, opts RewrapOptions) (*RewrapResult, error) {
	vaultPath, userConfig, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	var sealedFiles []string
	if opts.Partition != "" {
		if _, ok := vaultConfig.Partitions[opts.Partition]; !ok {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrPartitionNotFound, opts.Partition)
		}
		sealedFiles, err = vaultfs.FindSealedFilesInPartition(vaultPath, opts.Partition)
		if err != nil {
			return nil, fmt.Errorf("finding sealed files: %w", err)
		}
	} else {
		sealedFiles, err = vaultfs.FindSealedFiles(vaultPath)
		if err != nil {
			return nil, fmt.Errorf("finding sealed files: %w", err)
		}
	}
	if len(sealedFiles) == 0 {
		return nil, kerrors.ErrNoSealedFiles
	}

	result := &RewrapResult{
		RewrappedFiles: sealedFiles,
		VaultPath:      vaultPath,
		DryRun:         opts.DryRun,
	}

	if opts.DryRun {
		return result, nil
	}

	privateKey, err := loadPrivateKey(opts.PrivateKeyData, vaultConfig.Vault.UUID)
	if err != nil {
		return nil, err
	}

	directory := vaultDirectory(vaultConfig)
	if err := rewrapFiles(vaultPath, sealedFiles, directory, principalUUID(userConfig, vaultConfig), privateKey); err != nil {
		return nil, err
	}

	auditEntry := audit.LogWithUser("rewrap")
	auditEntry.Partition = opts.Partition
	auditEntry.FilesCount = len(sealedFiles)
	audit.Log(auditEntry)

	return result, nil
}

// rewrapFiles replaces each sealed file's envelope with one sealed for the
// partition's current recipients. Every replacement is built in memory
// first; writes only start after the whole batch succeeds.
func rewrapFiles(vaultPath string, sealedFiles []string, directory *recipients.Directory, userUUID string, privateKey *rsa.PrivateKey) error {
	provider := crypt.NewProvider()
	resolved := make(map[string][]envelope.Recipient)
	replacements := make([]*envelope.EncryptedField, len(sealedFiles))

	for i, file := range sealedFiles {
		partition, ok := vaultfs.PartitionOf(vaultPath, file)
		if !ok {
			return fmt.Errorf("%w: %s is not inside a partition", kerrors.ErrPartitionNotFound, file)
		}

		recipientList, done := resolved[partition]
		if !done {
			var err error
			recipientList, err = directory.ResolveRecipients(partition)
			if err != nil {
				return err
			}
			resolved[partition] = recipientList
		}

		env, err := readEnvelope(file)
		if err != nil {
			return err
		}

		replacement, err := envelope.Rewrap(provider, env, userUUID, privateKey, recipientList)
		if err != nil {
			return fmt.Errorf("rewrapping %s: %w", file, err)
		}
		replacements[i] = replacement
	}

	for i, file := range sealedFiles {
		if err := writeEnvelope(file, replacements[i]); err != nil {
			return fmt.Errorf("writing envelope for %s: %w", file, err)
		}
	}

	return nil
}
