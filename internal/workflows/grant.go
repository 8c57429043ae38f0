package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/configs"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/vaultfs"
	"github.com/google/uuid"
)

// GrantOptions configures the grant workflow.
type GrantOptions struct {
	// Partition is the partition the principal is being granted.
	Partition string

	// UserEmail identifies the principal being granted access.
	UserEmail string

	// PublicKeyText contains the principal's public key in PEM form, for
	// principals not yet known to the vault.
	PublicKeyText string

	// PublicKeyFile is a path to the principal's public key file, as an
	// alternative to PublicKeyText.
	PublicKeyFile string

	// DryRun previews the grant without making changes.
	DryRun bool

	// PrivateKeyData contains the caller's private key bytes when reading
	// from stdin. The caller's key is needed to rewrap the partition.
	PrivateKeyData []byte
}

// GrantResult contains the outcome of a grant operation.
type GrantResult struct {
	// Partition is the partition that was granted.
	Partition string

	// TargetUUID is the granted principal's UUID.
	TargetUUID string

	// NewPrincipal indicates the principal was added to the vault by this grant.
	NewPrincipal bool

	// AlreadyCurator indicates the principal was already a curator; only
	// the rewrap (if any) had an effect.
	AlreadyCurator bool

	// RewrappedFiles counts the envelopes rewrapped to include the new recipient.
	RewrappedFiles int

	// DryRun indicates whether this was a dry-run (no changes made).
	DryRun bool
}

// Grant adds a principal to a partition's curators and rewraps every
// envelope in the partition so the new curator holds a wrapped key in
// each one.
//
// The config edit and the rewrap happen in the same operation: a curator
// listed in the config but absent from the envelopes can open nothing, so
// the grant is not complete until the envelopes say so. Existing envelopes
// are replaced, never extended in place; each rewrap mints a fresh
// symmetric key and IV.
//
// A principal unknown to the vault is registered first, which requires
// their public key (text or file).
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrPartitionNotFound if the partition does not exist.
// Returns ErrPrincipalNotFound if the email is unknown and no key was supplied.
// Returns ErrPublicKeyNotFound if the principal has no published key.
// Returns ErrNotAuthorized if the caller cannot open the partition's envelopes.
func Grant(ctx context.Context, opts GrantOptions) (*GrantResult, error) {
	vaultPath, userConfig, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	partition, exists := vaultConfig.Partitions[opts.Partition]
	if !exists {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPartitionNotFound, opts.Partition)
	}

	keyBytes, err := readSuppliedPublicKey(opts.PublicKeyText, opts.PublicKeyFile)
	if err != nil {
		return nil, err
	}

	directory := vaultDirectory(vaultConfig)

	targetUUID, known := vaultConfig.GetPrincipalUUIDByEmail(opts.UserEmail)
	newPrincipal := !known
	if !known {
		if keyBytes == nil {
			return nil, fmt.Errorf("%w: %s (supply their public key to add them)", kerrors.ErrPrincipalNotFound, opts.UserEmail)
		}
		targetUUID = uuid.New().String()
	}

	alreadyCurator := false
	for _, id := range partition.Curators {
		if id == targetUUID {
			alreadyCurator = true
		}
	}

	sealedFiles, err := vaultfs.FindSealedFilesInPartition(vaultPath, opts.Partition)
	if err != nil {
		return nil, fmt.Errorf("finding sealed files: %w", err)
	}

	result := &GrantResult{
		Partition:      opts.Partition,
		TargetUUID:     targetUUID,
		NewPrincipal:   newPrincipal,
		AlreadyCurator: alreadyCurator,
		RewrappedFiles: len(sealedFiles),
		DryRun:         opts.DryRun,
	}

	if opts.DryRun {
		return result, nil
	}

	if keyBytes != nil && !directory.HasPublishedKey(targetUUID) {
		if err := directory.PublishKey(targetUUID, keyBytes); err != nil {
			return nil, fmt.Errorf("publishing public key: %w", err)
		}
	}
	if !directory.HasPublishedKey(targetUUID) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPublicKeyNotFound, opts.UserEmail)
	}

	if newPrincipal {
		vaultConfig.Principals[targetUUID] = opts.UserEmail
	}
	if !alreadyCurator {
		partition.Curators = append(partition.Curators, targetUUID)
		vaultConfig.Partitions[opts.Partition] = partition
	}
	if err := configs.SaveVaultConfig(vaultConfig); err != nil {
		return nil, fmt.Errorf("saving vault config: %w", err)
	}

	if len(sealedFiles) > 0 {
		privateKey, err := loadPrivateKey(opts.PrivateKeyData, vaultConfig.Vault.UUID)
		if err != nil {
			return nil, err
		}
		if err := rewrapFiles(vaultPath, sealedFiles, directory, principalUUID(userConfig, vaultConfig), privateKey); err != nil {
			return nil, err
		}
	}

	auditEntry := audit.LogWithUser("grant")
	auditEntry.Partition = opts.Partition
	auditEntry.TargetUser = opts.UserEmail
	auditEntry.TargetUUID = targetUUID
	auditEntry.FilesCount = len(sealedFiles)
	audit.Log(auditEntry)

	return result, nil
}

// readSuppliedPublicKey returns the supplied key bytes, favoring inline text.
func readSuppliedPublicKey(text string, file string) ([]byte, error) {
	if text != "" {
		return []byte(text), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading public key file: %w", err)
		}
		return data, nil
	}
	return nil, nil
}
