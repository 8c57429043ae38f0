package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldseal/fieldseal/internal/audit"
	"github.com/fieldseal/fieldseal/internal/configs"
	"github.com/fieldseal/fieldseal/internal/crypt"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/recipients"
	"github.com/fieldseal/fieldseal/internal/vaultfs"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// VaultName is the name for the vault. If empty, uses the directory name.
	VaultName string

	// UserEmail identifies the founding principal. If empty, any email
	// already in the user config is kept.
	UserEmail string
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// VaultName is the name of the initialized vault.
	VaultName string

	// VaultUUID is the unique identifier assigned to the vault.
	VaultUUID string

	// UserUUID is the founding principal's UUID.
	UserUUID string

	// VaultPath is the root path of the vault.
	VaultPath string
}

// Init initializes a new Fieldseal vault in the current directory.
//
// It creates the .fieldseal directory structure, generates the founding
// principal's RSA key pair, publishes their public key, and records them
// as the vault's first admin. Admins are recipients of every partition,
// so the founder can open anything sealed from day one.
//
// Returns ErrVaultAlreadyInitialized if a .fieldseal directory already exists.
// Returns errors from key generation or configuration if they fail.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	vaultExists, err := vaultfs.DoesVaultExist()
	if err != nil {
		return nil, fmt.Errorf("checking vault layout: %w", err)
	}
	if vaultExists {
		return nil, kerrors.ErrVaultAlreadyInitialized
	}

	userConfig, err := configs.EnsureUserConfig()
	if err != nil {
		return nil, fmt.Errorf("ensuring user config: %w", err)
	}
	if opts.UserEmail != "" && userConfig.User.Email != opts.UserEmail {
		userConfig.User.Email = opts.UserEmail
		if err := configs.SaveUserConfig(userConfig); err != nil {
			return nil, fmt.Errorf("saving user config: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	vaultName := opts.VaultName
	if vaultName == "" {
		vaultName = filepath.Base(wd)
	}

	fieldsealDir := filepath.Join(wd, ".fieldseal")
	cleanupNeeded := false
	defer func() {
		if cleanupNeeded {
			os.RemoveAll(fieldsealDir)
		}
	}()

	if err := vaultfs.EnsureVaultLayout(wd); err != nil {
		return nil, fmt.Errorf("creating .fieldseal folders: %w", err)
	}
	cleanupNeeded = true

	vaultConfig := &configs.VaultConfig{
		Vault: configs.Vault{
			UUID: configs.GenerateVaultUUID(),
			Name: vaultName,
		},
		Principals: make(map[string]string),
		Partitions: make(map[string]configs.Partition),
	}
	vaultConfig.Principals[userConfig.User.UUID] = userConfig.User.Email
	vaultConfig.Admins = []string{userConfig.User.UUID}

	configs.VaultFieldsealSettings = &configs.VaultSettings{
		VaultUUID:           vaultConfig.Vault.UUID,
		VaultName:           vaultName,
		VaultPath:           wd,
		VaultRecipientsPath: filepath.Join(fieldsealDir, "recipients"),
		VaultAuditPath:      filepath.Join(fieldsealDir, "audit.jsonl"),
	}

	if err := configs.SaveVaultConfig(vaultConfig); err != nil {
		return nil, fmt.Errorf("saving vault config: %w", err)
	}

	if userConfig.Vaults == nil {
		userConfig.Vaults = make(map[string]string)
	}
	userConfig.Vaults[vaultConfig.Vault.UUID] = vaultName
	if err := configs.SaveUserConfig(userConfig); err != nil {
		return nil, fmt.Errorf("updating user config with vault: %w", err)
	}

	provider := crypt.NewProvider()
	privateKey, err := provider.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating RSA key pair: %w", err)
	}

	if err := crypt.SavePrivateKey(privateKey, configs.GetPrivateKeyPath(vaultConfig.Vault.UUID)); err != nil {
		return nil, fmt.Errorf("saving private key: %w", err)
	}
	if err := crypt.SavePublicKey(&privateKey.PublicKey, configs.GetPublicKeyPath(vaultConfig.Vault.UUID)); err != nil {
		return nil, fmt.Errorf("saving public key: %w", err)
	}

	publicKeyBytes, err := crypt.MarshalPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}
	directory := recipients.NewDirectory(vaultConfig, configs.VaultFieldsealSettings.VaultRecipientsPath)
	if err := directory.PublishKey(userConfig.User.UUID, publicKeyBytes); err != nil {
		return nil, fmt.Errorf("publishing public key: %w", err)
	}

	now := time.Now().UTC()
	_ = configs.SaveKeyMetadata(vaultConfig.Vault.UUID, &configs.KeyMetadata{
		VaultName:      vaultName,
		VaultPath:      wd,
		CreatedAt:      now,
		LastAccessedAt: now,
	})

	cleanupNeeded = false

	auditEntry := audit.LogWithUser("init")
	auditEntry.VaultName = vaultName
	auditEntry.VaultUUID = vaultConfig.Vault.UUID
	audit.Log(auditEntry)

	return &InitResult{
		VaultName: vaultName,
		VaultUUID: vaultConfig.Vault.UUID,
		UserUUID:  userConfig.User.UUID,
		VaultPath: wd,
	}, nil
}
