package configs

import (
	"os"
	"time"
)

// KeyMetadata records non-sensitive bookkeeping about a vault key pair.
// It lives next to the private key as <vault-uuid>.meta.toml and is
// best-effort: losing it never affects decryption.
type KeyMetadata struct {
	VaultName      string    `toml:"vault_name"`
	VaultPath      string    `toml:"vault_path"`
	CreatedAt      time.Time `toml:"created_at"`
	LastAccessedAt time.Time `toml:"last_accessed_at"`
}

func keyMetadataPath(vaultUUID string) string {
	return GetPrivateKeyPath(vaultUUID) + ".meta.toml"
}

// SaveKeyMetadata writes the metadata file for a vault key.
func SaveKeyMetadata(vaultUUID string, metadata *KeyMetadata) error {
	return saveTOML(keyMetadataPath(vaultUUID), metadata)
}

// LoadKeyMetadata reads the metadata file for a vault key.
// Returns nil without error when no metadata exists.
func LoadKeyMetadata(vaultUUID string) (*KeyMetadata, error) {
	path := keyMetadataPath(vaultUUID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	metadata := &KeyMetadata{}
	if err := loadTOML(path, metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// TouchKeyMetadata updates the last-accessed timestamp, ignoring a missing
// metadata file.
func TouchKeyMetadata(vaultUUID string) {
	metadata, err := LoadKeyMetadata(vaultUUID)
	if err != nil || metadata == nil {
		return
	}
	metadata.LastAccessedAt = time.Now().UTC()
	// Best-effort: bookkeeping must never fail an operation.
	_ = SaveKeyMetadata(vaultUUID, metadata)
}
