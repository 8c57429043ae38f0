package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/configs"
	"github.com/fieldseal/fieldseal/internal/crypt"
)

// JoinOptions configures the join workflow.
type JoinOptions struct {
	// UserEmail identifies the joining principal. If empty, any email
	// already in the user config is kept.
	UserEmail string

	// Force regenerates and republishes the key pair even if one is
	// already published. Envelopes wrapped for the old key become
	// unreadable to this principal until the next rewrap.
	Force bool
}

// JoinResult contains the outcome of a join operation.
type JoinResult struct {
	// VaultName is the name of the vault joined.
	VaultName string

	// UserUUID is the principal UUID the key was published under.
	UserUUID string

	// Registered indicates the principal was newly added to the vault's
	// principal list, as opposed to already being known.
	Registered bool
}

// Join generates a key pair for this vault and publishes the public key.
//
// Joining makes the principal known to the vault (their UUID and email in
// the principal list, their public key in the recipients directory) but
// grants nothing: they cannot open any envelope until an admin grants
// them a partition, which is what wraps keys for them.
//
// A principal already registered by a grant from another machine keeps
// the UUID that grant minted; the published key lands under it.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrPublicKeyExists if a key is already published and Force is unset.
func Join(ctx context.Context, opts JoinOptions) (*JoinResult, error) {
	_, userConfig, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	if opts.UserEmail != "" && userConfig.User.Email != opts.UserEmail {
		userConfig.User.Email = opts.UserEmail
		if err := configs.SaveUserConfig(userConfig); err != nil {
			return nil, fmt.Errorf("saving user config: %w", err)
		}
	}

	principalID := principalUUID(userConfig, vaultConfig)
	directory := vaultDirectory(vaultConfig)

	if opts.Force {
		if err := directory.RemoveKey(principalID); err != nil {
			return nil, fmt.Errorf("removing published key: %w", err)
		}
	}

	provider := crypt.NewProvider()
	privateKey, err := provider.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating RSA key pair: %w", err)
	}

	vaultUUID := vaultConfig.Vault.UUID
	if err := crypt.SavePrivateKey(privateKey, configs.GetPrivateKeyPath(vaultUUID)); err != nil {
		return nil, fmt.Errorf("saving private key: %w", err)
	}
	if err := crypt.SavePublicKey(&privateKey.PublicKey, configs.GetPublicKeyPath(vaultUUID)); err != nil {
		return nil, fmt.Errorf("saving public key: %w", err)
	}

	publicKeyBytes, err := crypt.MarshalPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}
	if err := directory.PublishKey(principalID, publicKeyBytes); err != nil {
		return nil, err
	}

	registered := false
	if _, known := vaultConfig.Principals[principalID]; !known {
		if vaultConfig.Principals == nil {
			vaultConfig.Principals = make(map[string]string)
		}
		vaultConfig.Principals[principalID] = userConfig.User.Email
		if err := configs.SaveVaultConfig(vaultConfig); err != nil {
			return nil, fmt.Errorf("saving vault config: %w", err)
		}
		registered = true
	}

	if userConfig.Vaults == nil {
		userConfig.Vaults = make(map[string]string)
	}
	if _, tracked := userConfig.Vaults[vaultUUID]; !tracked {
		userConfig.Vaults[vaultUUID] = vaultConfig.Vault.Name
		if err := configs.SaveUserConfig(userConfig); err != nil {
			return nil, fmt.Errorf("updating user config with vault: %w", err)
		}
	}

	now := time.Now().UTC()
	_ = configs.SaveKeyMetadata(vaultUUID, &configs.KeyMetadata{
		VaultName:      vaultConfig.Vault.Name,
		VaultPath:      configs.VaultFieldsealSettings.VaultPath,
		CreatedAt:      now,
		LastAccessedAt: now,
	})

	auditEntry := audit.LogWithUser("join")
	audit.Log(auditEntry)

	return &JoinResult{
		VaultName:  vaultConfig.Vault.Name,
		UserUUID:   principalID,
		Registered: registered,
	}, nil
}
