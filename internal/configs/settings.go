package configs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/fieldseal/fieldseal/internal/utils"
)

type UserSettings struct {
	UserKeysPath    string
	UserConfigsPath string
	Username        string
}

type VaultSettings struct {
	VaultUUID           string
	VaultName           string
	VaultPath           string
	VaultRecipientsPath string
	VaultAuditPath      string
}

var (
	UserFieldsealSettings  *UserSettings
	VaultFieldsealSettings *VaultSettings
)

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	username, err := utils.GetUsername()
	if err != nil {
		log.Fatalf("error getting username: %s", err)
	}

	// Independent of which vault you are in, so it is ok to init here.
	UserFieldsealSettings = &UserSettings{
		UserKeysPath:    filepath.Join(dataDir, "fieldseal", "keys"),
		UserConfigsPath: filepath.Join(configDir, "fieldseal"),
		Username:        username,
	}
	VaultFieldsealSettings = &VaultSettings{}
}

// InitVaultSettings locates the enclosing vault and fills in the vault
// paths. An empty VaultPath afterwards means no vault was found.
func InitVaultSettings() error {
	vaultPath, err := utils.FindVaultRoot()
	if err != nil {
		return err
	}

	VaultFieldsealSettings = &VaultSettings{
		VaultName:           filepath.Base(vaultPath),
		VaultPath:           vaultPath,
		VaultRecipientsPath: filepath.Join(vaultPath, ".fieldseal", "recipients"),
		VaultAuditPath:      filepath.Join(vaultPath, ".fieldseal", "audit.jsonl"),
	}
	if vaultPath == "" {
		VaultFieldsealSettings.VaultName = ""
		VaultFieldsealSettings.VaultRecipientsPath = ""
		VaultFieldsealSettings.VaultAuditPath = ""
	}

	return nil
}

// GetPrivateKeyPath returns where the user's private key for a vault lives.
func GetPrivateKeyPath(vaultUUID string) string {
	return filepath.Join(UserFieldsealSettings.UserKeysPath, vaultUUID)
}

// GetPublicKeyPath returns where the user's public key for a vault lives.
func GetPublicKeyPath(vaultUUID string) string {
	return GetPrivateKeyPath(vaultUUID) + ".pub"
}
