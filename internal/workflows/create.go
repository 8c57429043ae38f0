package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/configs"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/vaultfs"
)

// CreateOptions configures the create workflow.
type CreateOptions struct {
	// Partition is the name of the partition to create.
	Partition string

	// CuratorEmails lists principals to assign as curators, beyond the
	// admins who are recipients of every partition anyway.
	CuratorEmails []string
}

// CreateResult contains the outcome of a create operation.
type CreateResult struct {
	// Partition is the name of the created partition.
	Partition string

	// Curators lists the curator UUIDs assigned to the partition.
	Curators []string

	// Recipients lists every principal UUID entitled to the partition,
	// admins included.
	Recipients []string
}

// Create adds a partition to the vault.
//
// A partition is a named group of contacts whose sealed fields share one
// recipient set: the vault admins plus the partition's curators. Creating
// a partition records it in the vault config and creates its directory.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrPartitionExists if the partition is already configured.
// Returns ErrPrincipalNotFound if a curator email is not a vault principal.
func Create(ctx context.Context, opts CreateOptions) (*CreateResult, error) {
	vaultPath, _, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	if _, exists := vaultConfig.Partitions[opts.Partition]; exists {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPartitionExists, opts.Partition)
	}

	var curators []string
	for _, email := range opts.CuratorEmails {
		principalUUID, found := vaultConfig.GetPrincipalUUIDByEmail(email)
		if !found {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrPrincipalNotFound, email)
		}
		curators = append(curators, principalUUID)
	}

	if vaultConfig.Partitions == nil {
		vaultConfig.Partitions = make(map[string]configs.Partition)
	}
	vaultConfig.Partitions[opts.Partition] = configs.Partition{
		Curators:  curators,
		CreatedAt: time.Now().UTC(),
	}

	if err := configs.SaveVaultConfig(vaultConfig); err != nil {
		return nil, fmt.Errorf("saving vault config: %w", err)
	}

	if err := vaultfs.EnsurePartitionDir(vaultPath, opts.Partition); err != nil {
		return nil, fmt.Errorf("creating partition directory: %w", err)
	}

	members, _ := vaultConfig.PartitionMembers(opts.Partition)

	auditEntry := audit.LogWithUser("create")
	auditEntry.Partition = opts.Partition
	audit.Log(auditEntry)

	return &CreateResult{
		Partition:  opts.Partition,
		Curators:   curators,
		Recipients: members,
	}, nil
}
