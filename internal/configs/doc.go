// Package configs manages user and vault configuration for Fieldseal.
//
// Configuration is stored in TOML format at two levels:
//
//   - User config: <user config dir>/fieldseal/config.toml (user identity,
//     registered vaults)
//   - Vault config: .fieldseal/config.toml (vault identity, principals,
//     admins, partitions)
//
// # User Configuration
//
// The user config stores:
//   - User identity (email, UUID)
//   - Map of registered vaults (UUID -> vault name)
//
// The user UUID is auto-generated on first use and persists across all
// vaults. This UUID identifies the user's key files and their wrapped-key
// slots inside envelopes.
//
// # Vault Configuration
//
// The vault config stores:
//   - Vault identity (name, UUID)
//   - Map of principals (UUID -> email)
//   - Admin principal UUIDs (entitled to every partition)
//   - Partitions, each with its curator UUIDs and creation timestamp
//
// The recipient set for a partition is the union of the vault admins and
// that partition's curators. PartitionMembers computes it.
//
// # Key Metadata
//
// Each vault's key pair is stored in <data dir>/fieldseal/keys/<vault-uuid>
// with an adjacent <vault-uuid>.meta.toml tracking the vault name and path
// plus creation and last-access timestamps. Metadata is purely informational.
//
// # Settings
//
// Global settings are initialized at startup:
//   - UserFieldsealSettings: paths to user config and keys directories
//   - VaultFieldsealSettings: current vault's paths and identity
//
// Call InitVaultSettings() before accessing VaultFieldsealSettings.
// It walks up the directory tree to find the nearest .fieldseal directory.
package configs
