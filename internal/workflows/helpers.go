package workflows

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/fieldseal/fieldseal/internal/configs"
	"github.com/fieldseal/fieldseal/internal/crypt"
	"github.com/fieldseal/fieldseal/internal/envelope"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
	"github.com/fieldseal/fieldseal/internal/recipients"
	"github.com/fieldseal/fieldseal/internal/utils"
)

// requireVault initializes vault settings and fails when the working
// directory is not inside a vault.
func requireVault() (string, error) {
	if err := configs.InitVaultSettings(); err != nil {
		return "", fmt.Errorf("initializing vault settings: %w", err)
	}

	vaultPath := configs.VaultFieldsealSettings.VaultPath
	if vaultPath == "" {
		return "", kerrors.ErrVaultNotInitialized
	}
	return vaultPath, nil
}

// loadVaultContext loads the user and vault configs for an operation that
// runs inside an initialized vault.
func loadVaultContext() (vaultPath string, userConfig *configs.UserConfig, vaultConfig *configs.VaultConfig, err error) {
	vaultPath, err = requireVault()
	if err != nil {
		return "", nil, nil, err
	}

	userConfig, err = configs.EnsureUserConfig()
	if err != nil {
		return "", nil, nil, fmt.Errorf("loading user config: %w", err)
	}

	vaultConfig, err = configs.LoadVaultConfig()
	if err != nil {
		return "", nil, nil, fmt.Errorf("loading vault config: %w", err)
	}
	configs.VaultFieldsealSettings.VaultUUID = vaultConfig.Vault.UUID

	return vaultPath, userConfig, vaultConfig, nil
}

// principalUUID resolves the caller's principal UUID in this vault. The
// local user UUID is authoritative when the vault knows it; otherwise the
// email lookup covers identities registered by another machine's grant.
func principalUUID(userConfig *configs.UserConfig, vaultConfig *configs.VaultConfig) string {
	if _, ok := vaultConfig.Principals[userConfig.User.UUID]; ok {
		return userConfig.User.UUID
	}
	if id, ok := vaultConfig.GetPrincipalUUIDByEmail(userConfig.User.Email); ok {
		return id
	}
	return userConfig.User.UUID
}

// vaultDirectory builds the recipient resolver over the vault's published keys.
func vaultDirectory(vaultConfig *configs.VaultConfig) *recipients.Directory {
	return recipients.NewDirectory(vaultConfig, configs.VaultFieldsealSettings.VaultRecipientsPath)
}

// loadPrivateKey loads the private key from bytes or from disk.
//
// When keyData is non-empty (supplied over stdin), an encrypted OpenSSH key
// triggers a passphrase prompt on the controlling terminal rather than
// stdin, which is already consumed by the key itself.
func loadPrivateKey(keyData []byte, vaultUUID string) (*rsa.PrivateKey, error) {
	if len(keyData) > 0 {
		key, err := crypt.ParsePrivateKeyWithPrompt(keyData, func(prompt string) ([]byte, error) {
			return utils.ReadPassphraseFromTTY(prompt)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyImport, err)
		}
		return key, nil
	}

	privateKeyPath := configs.GetPrivateKeyPath(vaultUUID)
	key, err := crypt.LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrPrivateKeyNotFound, err)
	}

	configs.TouchKeyMetadata(vaultUUID)
	return key, nil
}

// readEnvelope loads and decodes an envelope record from disk.
func readEnvelope(path string) (*envelope.EncryptedField, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	env, err := envelope.UnmarshalWire(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}

// writeEnvelope encodes and atomically writes an envelope record. The
// record only ever appears on disk complete.
func writeEnvelope(path string, env *envelope.EncryptedField) error {
	data, err := env.MarshalWire()
	if err != nil {
		return err
	}
	return utils.AtomicWriteFile(path, data, 0644)
}
