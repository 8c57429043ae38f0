package workflows

import (
	"context"
	"fmt"
	"sort"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/configs"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/vaultfs"
)

// RevokeOptions configures the revoke workflow.
type RevokeOptions struct {
	// Partition is the partition to revoke. Ignored when All is set.
	Partition string

	// UserEmail identifies the principal losing access.
	UserEmail string

	// All removes the principal from every partition, the principal list,
	// and the published keys.
	All bool

	// DryRun previews the revocation without making changes.
	DryRun bool

	// PrivateKeyData contains the caller's private key bytes when reading
	// from stdin. The caller's key is needed to rewrap affected envelopes.
	PrivateKeyData []byte
}

// RevokeResult contains the outcome of a revoke operation.
type RevokeResult struct {
	// TargetUUID is the revoked principal's UUID.
	TargetUUID string

	// Partitions lists the partitions the principal was removed from.
	Partitions []string

	// RewrappedFiles counts the envelopes rewrapped without the revoked
	// recipient.
	RewrappedFiles int

	// RemovedFromVault indicates the principal was removed entirely.
	RemovedFromVault bool

	// DryRun indicates whether this was a dry-run (no changes made).
	DryRun bool
}

// Revoke removes a principal from a partition's curators and rewraps every
// envelope in the partition so the removed principal no longer holds a
// wrapped key in any of them.
//
// Rewrapping is what makes the revocation real going forward: new
// envelopes exclude the principal. Copies of old envelope bytes the
// principal captured before revocation remain technically openable with
// their key; revocation is not retroactive cryptographic erasure, which
// is why the rewrap replaces files rather than pretending to rewrite
// history.
//
// Admins cannot be revoked from a single partition; they are recipients of
// every partition by role, so their admin status must be removed first.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrPartitionNotFound if the partition does not exist.
// Returns ErrPrincipalNotFound if the email is not a vault principal.
// Returns ErrSelfRevoke if the caller targets themselves.
// Returns ErrNotAuthorized if the caller cannot open the affected envelopes.
func Revoke(ctx context.Context, opts RevokeOptions) (*RevokeResult, error) {
	vaultPath, userConfig, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	targetUUID, found := vaultConfig.GetPrincipalUUIDByEmail(opts.UserEmail)
	if !found {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPrincipalNotFound, opts.UserEmail)
	}
	if targetUUID == principalUUID(userConfig, vaultConfig) {
		return nil, kerrors.ErrSelfRevoke
	}

	if vaultConfig.IsAdmin(targetUUID) && !opts.All {
		return nil, fmt.Errorf("%s is a vault admin and receives every partition; revoke with --all to remove them", opts.UserEmail)
	}

	affected, err := affectedPartitions(vaultConfig, targetUUID, opts)
	if err != nil {
		return nil, err
	}

	var sealedFiles []string
	for _, partition := range affected {
		files, err := vaultfs.FindSealedFilesInPartition(vaultPath, partition)
		if err != nil {
			return nil, fmt.Errorf("finding sealed files: %w", err)
		}
		sealedFiles = append(sealedFiles, files...)
	}

	result := &RevokeResult{
		TargetUUID:       targetUUID,
		Partitions:       affected,
		RewrappedFiles:   len(sealedFiles),
		RemovedFromVault: opts.All,
		DryRun:           opts.DryRun,
	}

	if opts.DryRun {
		return result, nil
	}

	for _, name := range affected {
		partition := vaultConfig.Partitions[name]
		partition.Curators = removeUUID(partition.Curators, targetUUID)
		vaultConfig.Partitions[name] = partition
	}
	if opts.All {
		vaultConfig.Admins = removeUUID(vaultConfig.Admins, targetUUID)
		delete(vaultConfig.Principals, targetUUID)
	}
	if err := configs.SaveVaultConfig(vaultConfig); err != nil {
		return nil, fmt.Errorf("saving vault config: %w", err)
	}

	directory := vaultDirectory(vaultConfig)
	if opts.All {
		if err := directory.RemoveKey(targetUUID); err != nil {
			return nil, fmt.Errorf("removing published key: %w", err)
		}
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

	auditEntry := audit.LogWithUser("revoke")
	auditEntry.Partition = opts.Partition
	auditEntry.TargetUser = opts.UserEmail
	auditEntry.TargetUUID = targetUUID
	auditEntry.FilesCount = len(sealedFiles)
	audit.Log(auditEntry)

	return result, nil
}

// affectedPartitions determines which partitions a revocation touches.
func affectedPartitions(vaultConfig *configs.VaultConfig, targetUUID string, opts RevokeOptions) ([]string, error) {
	if opts.All {
		var affected []string
		for name, partition := range vaultConfig.Partitions {
			for _, id := range partition.Curators {
				if id == targetUUID {
					affected = append(affected, name)
					break
				}
			}
		}
		// Removing an admin changes every partition's recipient set.
		if vaultConfig.IsAdmin(targetUUID) {
			affected = affected[:0]
			for name := range vaultConfig.Partitions {
				affected = append(affected, name)
			}
		}
		sort.Strings(affected)
		return affected, nil
	}

	if _, exists := vaultConfig.Partitions[opts.Partition]; !exists {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPartitionNotFound, opts.Partition)
	}
	return []string{opts.Partition}, nil
}

func removeUUID(ids []string, target string) []string {
	var kept []string
	for _, id := range ids {
		if id != target {
			kept = append(kept, id)
		}
	}
	return kept
}
