package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

type UserConfig struct {
	User   User              `toml:"user"`
	Vaults map[string]string `toml:"vaults"` // vault UUID -> vault name
}

type User struct {
	Email string `toml:"email"`
	UUID  string `toml:"user_uuid"`
}

type VaultConfig struct {
	Vault      Vault                `toml:"vault"`
	Principals map[string]string    `toml:"principals"` // principal UUID -> email
	Admins     []string             `toml:"admins"`     // principal UUIDs with access to every partition
	Partitions map[string]Partition `toml:"partitions"`
}

type Vault struct {
	UUID string `toml:"vault_uuid"`
	Name string `toml:"name"`
}

type Partition struct {
	Curators  []string  `toml:"curators"` // principal UUIDs assigned to this partition
	CreatedAt time.Time `toml:"created_at"`
}

// LoadUserConfig loads the user configuration, returning an empty config
// when the file does not exist yet.
func LoadUserConfig() (*UserConfig, error) {
	configPath := filepath.Join(UserFieldsealSettings.UserConfigsPath, "config.toml")

	config := &UserConfig{
		Vaults: make(map[string]string),
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := loadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	configPath := filepath.Join(UserFieldsealSettings.UserConfigsPath, "config.toml")

	if err := saveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}

// EnsureUserConfig ensures the user configuration exists and has a UUID.
func EnsureUserConfig() (*UserConfig, error) {
	config, err := LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if config.User.UUID == "" {
		config.User.UUID = uuid.New().String()
		if err := SaveUserConfig(config); err != nil {
			return nil, fmt.Errorf("failed to save user config: %w", err)
		}
	}

	return config, nil
}

// LoadVaultConfig loads the vault configuration.
// Caller should ensure InitVaultSettings ran before calling this function.
func LoadVaultConfig() (*VaultConfig, error) {
	configPath := filepath.Join(VaultFieldsealSettings.VaultPath, ".fieldseal", "config.toml")

	config := &VaultConfig{
		Principals: make(map[string]string),
		Partitions: make(map[string]Partition),
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := loadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load vault config: %w", err)
	}

	return config, nil
}

// SaveVaultConfig saves the vault configuration.
// Caller should ensure InitVaultSettings ran before calling this function.
func SaveVaultConfig(config *VaultConfig) error {
	configPath := filepath.Join(VaultFieldsealSettings.VaultPath, ".fieldseal", "config.toml")

	if err := saveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save vault config: %w", err)
	}

	return nil
}

// GenerateVaultUUID generates a new UUID for a vault.
func GenerateVaultUUID() string {
	return uuid.New().String()
}

// GetPrincipalUUIDByEmail looks up a principal UUID by email.
// Returns the UUID and true if found, empty string and false otherwise.
func (vc *VaultConfig) GetPrincipalUUIDByEmail(email string) (string, bool) {
	for id, principalEmail := range vc.Principals {
		if principalEmail == email {
			return id, true
		}
	}
	return "", false
}

// IsAdmin reports whether a principal is a vault admin.
func (vc *VaultConfig) IsAdmin(principalUUID string) bool {
	for _, id := range vc.Admins {
		if id == principalUUID {
			return true
		}
	}
	return false
}

// PartitionMembers returns the deduplicated, sorted set of principal UUIDs
// entitled to read a partition: the vault admins plus the partition's
// curators. Returns false when the partition does not exist.
func (vc *VaultConfig) PartitionMembers(partition string) ([]string, bool) {
	part, ok := vc.Partitions[partition]
	if !ok {
		return nil, false
	}

	seen := make(map[string]bool)
	var members []string
	for _, id := range vc.Admins {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	for _, id := range part.Curators {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	sort.Strings(members)
	return members, true
}

// saveTOML writes a struct to a TOML file, creating parent directories.
func saveTOML(filePath string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

// loadTOML loads a TOML file into a struct.
func loadTOML(filePath string, data interface{}) error {
	_, err := toml.DecodeFile(filePath, data)
	return err
}
