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
	"github.com/fieldseal/fieldseal/internal/utils"
)

// ExportKeyOptions configures the export-key workflow.
type ExportKeyOptions struct {
	// OutputPath is where the key file is written. If empty, a default
	// name derived from the vault name is used in the working directory.
	OutputPath string

	// PrivateKeyData contains the private key bytes when reading from stdin.
	PrivateKeyData []byte
}

// ExportKeyResult contains the outcome of an export-key operation.
type ExportKeyResult struct {
	// OutputPath is where the key file was written.
	OutputPath string

	// VaultName is the vault the key belongs to.
	VaultName string
}

// ExportKey writes the user's private key for this vault to a file, for
// moving custody to another machine. The file is the only persistence
// format Fieldseal understands for keys; nothing else ever carries the
// private key off this machine.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrPrivateKeyNotFound if the user has no key for this vault.
func ExportKey(ctx context.Context, opts ExportKeyOptions) (*ExportKeyResult, error) {
	_, _, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	privateKey, err := loadPrivateKey(opts.PrivateKeyData, vaultConfig.Vault.UUID)
	if err != nil {
		return nil, err
	}

	vaultName := vaultConfig.Vault.Name
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = vaultName + ".key"
	}

	fileBytes, err := crypt.ExportToFile(privateKey, vaultName)
	if err != nil {
		return nil, fmt.Errorf("encoding key file: %w", err)
	}

	if err := utils.AtomicWriteFile(outputPath, fileBytes, 0600); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}

	auditEntry := audit.LogWithUser("export-key")
	auditEntry.OutputPath = filepath.Base(outputPath)
	audit.Log(auditEntry)

	return &ExportKeyResult{
		OutputPath: outputPath,
		VaultName:  vaultName,
	}, nil
}

// ImportKeyOptions configures the import-key workflow.
type ImportKeyOptions struct {
	// FilePath is the key file to import. Ignored when KeyData is set.
	FilePath string

	// KeyData contains the key file bytes when reading from stdin.
	KeyData []byte
}

// ImportKeyResult contains the outcome of an import-key operation.
type ImportKeyResult struct {
	// VaultName is the vault the key was stored for.
	VaultName string

	// VaultUUID is the vault's identifier.
	VaultUUID string
}

// ImportKey takes a key file produced by ExportKey and installs it as the
// user's private key for this vault. Encrypted OpenSSH keys prompt for
// their passphrase on the terminal. The matching public key is derived
// and stored alongside.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrKeyImport if the file cannot be decoded as a private key.
func ImportKey(ctx context.Context, opts ImportKeyOptions) (*ImportKeyResult, error) {
	_, _, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	keyData := opts.KeyData
	if keyData == nil {
		keyData, err = os.ReadFile(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
	}

	custodian := crypt.NewCustodian()
	defer custodian.Clear()

	privateKey, err := custodian.ImportFromFileWithPrompt(keyData, func(prompt string) ([]byte, error) {
		return utils.ReadPassphraseFromTTY(prompt)
	})
	if err != nil {
		return nil, err
	}

	vaultUUID := vaultConfig.Vault.UUID
	if err := crypt.SavePrivateKey(privateKey, configs.GetPrivateKeyPath(vaultUUID)); err != nil {
		return nil, fmt.Errorf("saving private key: %w", err)
	}
	if err := crypt.SavePublicKey(&privateKey.PublicKey, configs.GetPublicKeyPath(vaultUUID)); err != nil {
		return nil, fmt.Errorf("saving public key: %w", err)
	}

	now := time.Now().UTC()
	_ = configs.SaveKeyMetadata(vaultUUID, &configs.KeyMetadata{
		VaultName:      vaultConfig.Vault.Name,
		VaultPath:      configs.VaultFieldsealSettings.VaultPath,
		CreatedAt:      now,
		LastAccessedAt: now,
	})

	auditEntry := audit.LogWithUser("import-key")
	audit.Log(auditEntry)

	return &ImportKeyResult{
		VaultName: vaultConfig.Vault.Name,
		VaultUUID: vaultUUID,
	}, nil
}
