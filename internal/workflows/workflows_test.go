package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldseal/fieldseal/internal/configs"
	"github.com/fieldseal/fieldseal/internal/crypt"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// testEnv isolates user settings and the working directory so workflows
// operate on a throwaway vault. Workflows share package-level settings, so
// these tests cannot run in parallel.
type testEnv struct {
	root      string
	vaultPath string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	oldUserSettings := configs.UserFieldsealSettings
	oldVaultSettings := configs.VaultFieldsealSettings
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	t.Cleanup(func() {
		configs.UserFieldsealSettings = oldUserSettings
		configs.VaultFieldsealSettings = oldVaultSettings
		if err := os.Chdir(oldWd); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})

	env := &testEnv{root: root, vaultPath: filepath.Join(root, "vault")}
	if err := os.MkdirAll(env.vaultPath, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.Chdir(env.vaultPath); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	env.switchUser(t, "alice", "alice@example.com")
	return env
}

// switchUser points the user settings at a per-user directory, simulating
// a different machine acting on the same vault.
func (e *testEnv) switchUser(t *testing.T, name string, email string) {
	t.Helper()

	configs.UserFieldsealSettings = &configs.UserSettings{
		UserKeysPath:    filepath.Join(e.root, "users", name, "keys"),
		UserConfigsPath: filepath.Join(e.root, "users", name, "configs"),
		Username:        name,
	}
	configs.VaultFieldsealSettings = &configs.VaultSettings{}

	userConfig, err := configs.EnsureUserConfig()
	if err != nil {
		t.Fatalf("EnsureUserConfig failed: %v", err)
	}
	if userConfig.User.Email != email {
		userConfig.User.Email = email
		if err := configs.SaveUserConfig(userConfig); err != nil {
			t.Fatalf("SaveUserConfig failed: %v", err)
		}
	}
}

func (e *testEnv) initVault(t *testing.T) *InitResult {
	t.Helper()
	result, err := Init(context.Background(), InitOptions{VaultName: "contacts"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return result
}

func (e *testEnv) writeField(t *testing.T, partition, field, value string) string {
	t.Helper()
	path := filepath.Join(e.vaultPath, partition, field)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(value), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestInitCreatesVault(t *testing.T) {
	env := setupEnv(t)

	result := env.initVault(t)

	if result.VaultName != "contacts" {
		t.Errorf("Expected vault name contacts, got %q", result.VaultName)
	}
	if result.VaultUUID == "" {
		t.Error("Expected a vault UUID")
	}

	if _, err := os.Stat(filepath.Join(env.vaultPath, ".fieldseal", "config.toml")); err != nil {
		t.Errorf("Expected vault config on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.vaultPath, ".fieldseal", "recipients", result.UserUUID+".pub")); err != nil {
		t.Errorf("Expected founder's published key: %v", err)
	}
	if _, err := os.Stat(configs.GetPrivateKeyPath(result.VaultUUID)); err != nil {
		t.Errorf("Expected private key on disk: %v", err)
	}

	vaultConfig, err := configs.LoadVaultConfig()
	if err != nil {
		t.Fatalf("LoadVaultConfig failed: %v", err)
	}
	if !vaultConfig.IsAdmin(result.UserUUID) {
		t.Error("Expected founder to be admin")
	}
}

func TestInitTwiceFails(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)

	_, err := Init(context.Background(), InitOptions{VaultName: "contacts"})
	if !errors.Is(err, kerrors.ErrVaultAlreadyInitialized) {
		t.Fatalf("Expected ErrVaultAlreadyInitialized, got %v", err)
	}
}

func TestCreatePartition(t *testing.T) {
	env := setupEnv(t)
	init := env.initVault(t)

	result, err := Create(context.Background(), CreateOptions{Partition: "clients"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if result.Partition != "clients" {
		t.Errorf("Expected partition clients, got %q", result.Partition)
	}
	// Admins are recipients of every partition.
	if len(result.Recipients) != 1 || result.Recipients[0] != init.UserUUID {
		t.Errorf("Expected founder as sole recipient, got %v", result.Recipients)
	}

	if _, err := os.Stat(filepath.Join(env.vaultPath, "clients")); err != nil {
		t.Errorf("Expected partition directory: %v", err)
	}

	_, err = Create(context.Background(), CreateOptions{Partition: "clients"})
	if !errors.Is(err, kerrors.ErrPartitionExists) {
		t.Fatalf("Expected ErrPartitionExists, got %v", err)
	}
}

func TestCreatePartitionUnknownCurator(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)

	_, err := Create(context.Background(), CreateOptions{
		Partition:     "clients",
		CuratorEmails: []string{"ghost@example.com"},
	})
	if !errors.Is(err, kerrors.ErrPrincipalNotFound) {
		t.Fatalf("Expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestSealAndOpenRoundTrip(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	fieldPath := env.writeField(t, "clients", "full_name", "Ivanov Ivan Ivanovich")

	sealResult, err := Seal(context.Background(), SealOptions{})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealResult.SealedFiles) != 1 {
		t.Fatalf("Expected 1 sealed file, got %d", len(sealResult.SealedFiles))
	}

	sealed, err := os.ReadFile(sealResult.SealedFiles[0])
	if err != nil {
		t.Fatalf("Reading sealed file failed: %v", err)
	}
	if string(sealed) == "Ivanov Ivan Ivanovich" {
		t.Fatal("Sealed file still contains plaintext")
	}

	// Remove the plaintext and open it back from the envelope.
	if err := os.Remove(fieldPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	openResult, err := Open(context.Background(), OpenOptions{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(openResult.OpenedFiles) != 1 {
		t.Fatalf("Expected 1 opened file, got %d", len(openResult.OpenedFiles))
	}

	opened, err := os.ReadFile(openResult.OpenedFiles[0])
	if err != nil {
		t.Fatalf("Reading opened file failed: %v", err)
	}
	if string(opened) != "Ivanov Ivan Ivanovich" {
		t.Errorf("Round trip mismatch: got %q", opened)
	}
}

func TestSealDryRunWritesNothing(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.writeField(t, "clients", "phone", "+1 555 0100")

	result, err := Seal(context.Background(), SealOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Seal dry-run failed: %v", err)
	}

	if len(result.SealedFiles) != 1 {
		t.Fatalf("Expected 1 planned file, got %d", len(result.SealedFiles))
	}
	if _, err := os.Stat(result.SealedFiles[0]); !os.IsNotExist(err) {
		t.Error("Dry-run created a sealed file")
	}
}

func TestSealNoFiles(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)

	_, err := Seal(context.Background(), SealOptions{})
	if !errors.Is(err, kerrors.ErrNoFieldFiles) {
		t.Fatalf("Expected ErrNoFieldFiles, got %v", err)
	}
}

func TestOpenWithoutVault(t *testing.T) {
	setupEnv(t)

	_, err := Open(context.Background(), OpenOptions{})
	if !errors.Is(err, kerrors.ErrVaultNotInitialized) {
		t.Fatalf("Expected ErrVaultNotInitialized, got %v", err)
	}
}

func TestOpenUnauthorizedPrincipal(t *testing.T) {
	env := setupEnv(t)
	init := env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.writeField(t, "clients", "phone", "+1 555 0100")
	if _, err := Seal(context.Background(), SealOptions{}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	// A different user with their own key but no slot in the envelopes.
	env.switchUser(t, "mallory", "mallory@example.com")
	provider := crypt.NewProvider()
	malloryKey, err := provider.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	if err := crypt.SavePrivateKey(malloryKey, configs.GetPrivateKeyPath(init.VaultUUID)); err != nil {
		t.Fatalf("SavePrivateKey failed: %v", err)
	}

	_, err = Open(context.Background(), OpenOptions{})
	if !errors.Is(err, kerrors.ErrNotAuthorized) {
		t.Fatalf("Expected ErrNotAuthorized, got %v", err)
	}
}

// grantBob registers a second principal with their own key pair and grants
// them the partition. Returns bob's private key location for later use.
func grantBob(t *testing.T, env *testEnv, vaultUUID string, partition string) {
	t.Helper()

	provider := crypt.NewProvider()
	bobKey, err := provider.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	if err := crypt.SavePrivateKey(bobKey, filepath.Join(env.root, "users", "bob", "keys", vaultUUID)); err != nil {
		t.Fatalf("SavePrivateKey failed: %v", err)
	}
	bobPub, err := crypt.MarshalPublicKey(&bobKey.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKey failed: %v", err)
	}

	result, err := Grant(context.Background(), GrantOptions{
		Partition:     partition,
		UserEmail:     "bob@example.com",
		PublicKeyText: string(bobPub),
	})
	if err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if !result.NewPrincipal {
		t.Error("Expected bob to be a new principal")
	}
}

func TestGrantExtendsAccess(t *testing.T) {
	env := setupEnv(t)
	init := env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fieldPath := env.writeField(t, "clients", "note", "meeting at nine")
	if _, err := Seal(context.Background(), SealOptions{}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	grantBob(t, env, init.VaultUUID, "clients")

	// Bob can now open the envelope sealed before the grant, because the
	// grant rewrapped it for the extended recipient set.
	if err := os.Remove(fieldPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	env.switchUser(t, "bob", "bob@example.com")

	openResult, err := Open(context.Background(), OpenOptions{})
	if err != nil {
		t.Fatalf("Open as bob failed: %v", err)
	}

	opened, err := os.ReadFile(openResult.OpenedFiles[0])
	if err != nil {
		t.Fatalf("Reading opened file failed: %v", err)
	}
	if string(opened) != "meeting at nine" {
		t.Errorf("Round trip mismatch: got %q", opened)
	}
}

func TestGrantUnknownPrincipalWithoutKey(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := Grant(context.Background(), GrantOptions{
		Partition: "clients",
		UserEmail: "bob@example.com",
	})
	if !errors.Is(err, kerrors.ErrPrincipalNotFound) {
		t.Fatalf("Expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestRevokeRemovesAccess(t *testing.T) {
	env := setupEnv(t)
	init := env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.writeField(t, "clients", "note", "meeting at nine")
	if _, err := Seal(context.Background(), SealOptions{}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	grantBob(t, env, init.VaultUUID, "clients")

	result, err := Revoke(context.Background(), RevokeOptions{
		Partition: "clients",
		UserEmail: "bob@example.com",
	})
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if result.RewrappedFiles != 1 {
		t.Errorf("Expected 1 rewrapped file, got %d", result.RewrappedFiles)
	}

	// Bob's key no longer opens anything sealed in the partition.
	env.switchUser(t, "bob", "bob@example.com")
	_, err = Open(context.Background(), OpenOptions{})
	if !errors.Is(err, kerrors.ErrNotAuthorized) {
		t.Fatalf("Expected ErrNotAuthorized after revoke, got %v", err)
	}
}

func TestRevokeSelf(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := Revoke(context.Background(), RevokeOptions{
		Partition: "clients",
		UserEmail: "alice@example.com",
	})
	if !errors.Is(err, kerrors.ErrSelfRevoke) {
		t.Fatalf("Expected ErrSelfRevoke, got %v", err)
	}
}

func TestRevokeUnknownPrincipal(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := Revoke(context.Background(), RevokeOptions{
		Partition: "clients",
		UserEmail: "ghost@example.com",
	})
	if !errors.Is(err, kerrors.ErrPrincipalNotFound) {
		t.Fatalf("Expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestRewrapMintsFreshEnvelopes(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.writeField(t, "clients", "phone", "+1 555 0100")
	sealResult, err := Seal(context.Background(), SealOptions{})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	before, err := os.ReadFile(sealResult.SealedFiles[0])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	rewrapResult, err := Rewrap(context.Background(), RewrapOptions{Partition: "clients"})
	if err != nil {
		t.Fatalf("Rewrap failed: %v", err)
	}
	if len(rewrapResult.RewrappedFiles) != 1 {
		t.Fatalf("Expected 1 rewrapped file, got %d", len(rewrapResult.RewrappedFiles))
	}

	after, err := os.ReadFile(sealResult.SealedFiles[0])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(before) == string(after) {
		t.Error("Rewrap did not replace the envelope")
	}

	// Content is unchanged under the new envelope.
	openResult, err := Open(context.Background(), OpenOptions{})
	if err != nil {
		t.Fatalf("Open after rewrap failed: %v", err)
	}
	opened, err := os.ReadFile(openResult.OpenedFiles[0])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(opened) != "+1 555 0100" {
		t.Errorf("Rewrap changed content: got %q", opened)
	}
}

func TestRewrapUnknownPartition(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)

	_, err := Rewrap(context.Background(), RewrapOptions{Partition: "ghost"})
	if !errors.Is(err, kerrors.ErrPartitionNotFound) {
		t.Fatalf("Expected ErrPartitionNotFound, got %v", err)
	}
}

func TestExportAndImportKey(t *testing.T) {
	env := setupEnv(t)
	init := env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.writeField(t, "clients", "phone", "+1 555 0100")
	if _, err := Seal(context.Background(), SealOptions{}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	exportPath := filepath.Join(env.root, "alice.key")
	exportResult, err := ExportKey(context.Background(), ExportKeyOptions{OutputPath: exportPath})
	if err != nil {
		t.Fatalf("ExportKey failed: %v", err)
	}
	if exportResult.VaultName != "contacts" {
		t.Errorf("Expected vault name contacts, got %q", exportResult.VaultName)
	}

	// Simulate a new machine: the local key is gone, only the export remains.
	if err := os.Remove(configs.GetPrivateKeyPath(init.VaultUUID)); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	_, err = Open(context.Background(), OpenOptions{})
	if !errors.Is(err, kerrors.ErrPrivateKeyNotFound) {
		t.Fatalf("Expected ErrPrivateKeyNotFound, got %v", err)
	}

	if _, err := ImportKey(context.Background(), ImportKeyOptions{FilePath: exportPath}); err != nil {
		t.Fatalf("ImportKey failed: %v", err)
	}

	if _, err := Open(context.Background(), OpenOptions{}); err != nil {
		t.Fatalf("Open after import failed: %v", err)
	}
}

func TestImportKeyRejectsGarbage(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)

	garbagePath := filepath.Join(env.root, "garbage.key")
	if err := os.WriteFile(garbagePath, []byte("not a key"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := ImportKey(context.Background(), ImportKeyOptions{FilePath: garbagePath})
	if !errors.Is(err, kerrors.ErrKeyImport) {
		t.Fatalf("Expected ErrKeyImport, got %v", err)
	}
}

func TestAccessListsPrincipals(t *testing.T) {
	env := setupEnv(t)
	init := env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	grantBob(t, env, init.VaultUUID, "clients")

	result, err := Access(context.Background(), AccessOptions{})
	if err != nil {
		t.Fatalf("Access failed: %v", err)
	}

	if len(result.Principals) != 2 {
		t.Fatalf("Expected 2 principals, got %d", len(result.Principals))
	}
	if result.Summary.Active != 2 {
		t.Errorf("Expected 2 active principals, got %d", result.Summary.Active)
	}

	for _, p := range result.Principals {
		if p.Email == "alice@example.com" && !p.Admin {
			t.Error("Expected alice to be admin")
		}
		if p.Email == "bob@example.com" && p.Admin {
			t.Error("Expected bob to not be admin")
		}
		if len(p.Partitions) != 1 || p.Partitions[0] != "clients" {
			t.Errorf("Expected %s to read clients, got %v", p.Email, p.Partitions)
		}
	}
}

func TestLogFilters(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.writeField(t, "clients", "phone", "+1 555 0100")
	if _, err := Seal(context.Background(), SealOptions{}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	all, err := Log(context.Background(), LogOptions{})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	// init, create, seal.
	if len(all.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(all.Entries))
	}

	seals, err := Log(context.Background(), LogOptions{Operations: "seal"})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(seals.Entries) != 1 || seals.Entries[0].Operation != "seal" {
		t.Errorf("Expected a single seal entry, got %v", seals.Entries)
	}

	limited, err := Log(context.Background(), LogOptions{Limit: 1, Reverse: true})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(limited.Entries) != 1 || limited.Entries[0].Operation != "seal" {
		t.Errorf("Expected most recent entry to be seal, got %v", limited.Entries)
	}

	_, err = Log(context.Background(), LogOptions{Since: "not-a-date"})
	if !errors.Is(err, kerrors.ErrInvalidDateFormat) {
		t.Fatalf("Expected ErrInvalidDateFormat, got %v", err)
	}
}

func TestJoinPublishesKeyAndRegisters(t *testing.T) {
	env := setupEnv(t)
	init := env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fieldPath := env.writeField(t, "clients", "note", "call after lunch")
	if _, err := Seal(context.Background(), SealOptions{}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	env.switchUser(t, "carol", "carol@example.com")
	joinResult, err := Join(context.Background(), JoinOptions{UserEmail: "carol@example.com"})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !joinResult.Registered {
		t.Error("Expected carol to be newly registered")
	}
	if _, err := os.Stat(filepath.Join(env.vaultPath, ".fieldseal", "recipients", joinResult.UserUUID+".pub")); err != nil {
		t.Errorf("Expected carol's published key: %v", err)
	}
	if _, err := os.Stat(configs.GetPrivateKeyPath(init.VaultUUID)); err != nil {
		t.Errorf("Expected carol's private key on disk: %v", err)
	}

	// Joining grants nothing until an admin grants a partition.
	if _, err := Open(context.Background(), OpenOptions{}); !errors.Is(err, kerrors.ErrNotAuthorized) {
		t.Fatalf("Expected ErrNotAuthorized before any grant, got %v", err)
	}

	env.switchUser(t, "alice", "alice@example.com")
	if _, err := Grant(context.Background(), GrantOptions{
		Partition: "clients",
		UserEmail: "carol@example.com",
	}); err != nil {
		t.Fatalf("Grant after join failed: %v", err)
	}

	if err := os.Remove(fieldPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	env.switchUser(t, "carol", "carol@example.com")
	openResult, err := Open(context.Background(), OpenOptions{})
	if err != nil {
		t.Fatalf("Open as carol failed: %v", err)
	}
	opened, err := os.ReadFile(openResult.OpenedFiles[0])
	if err != nil {
		t.Fatalf("Reading opened file failed: %v", err)
	}
	if string(opened) != "call after lunch" {
		t.Errorf("Round trip mismatch: got %q", opened)
	}
}

func TestJoinRefusesSecondKeyWithoutForce(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)

	env.switchUser(t, "carol", "carol@example.com")
	if _, err := Join(context.Background(), JoinOptions{UserEmail: "carol@example.com"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	_, err := Join(context.Background(), JoinOptions{UserEmail: "carol@example.com"})
	if !errors.Is(err, kerrors.ErrPublicKeyExists) {
		t.Fatalf("Expected ErrPublicKeyExists, got %v", err)
	}

	result, err := Join(context.Background(), JoinOptions{UserEmail: "carol@example.com", Force: true})
	if err != nil {
		t.Fatalf("Forced join failed: %v", err)
	}
	if result.Registered {
		t.Error("Expected carol to already be registered on the second join")
	}
}

func TestAccessForSealedFile(t *testing.T) {
	env := setupEnv(t)
	env.initVault(t)
	if _, err := Create(context.Background(), CreateOptions{Partition: "clients"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.writeField(t, "clients", "phone", "+7 900 000 00 00")
	sealResult, err := Seal(context.Background(), SealOptions{})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	result, err := Access(context.Background(), AccessOptions{File: sealResult.SealedFiles[0]})
	if err != nil {
		t.Fatalf("Access failed: %v", err)
	}
	if len(result.Principals) != 1 {
		t.Fatalf("Expected the founder as sole wrapped recipient, got %d", len(result.Principals))
	}
	if result.Principals[0].Email != "alice@example.com" {
		t.Errorf("Expected alice wrapped, got %q", result.Principals[0].Email)
	}

	garbage := filepath.Join(env.vaultPath, "clients", "bogus.sealed")
	if err := os.WriteFile(garbage, []byte("{not wire"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Access(context.Background(), AccessOptions{File: garbage}); !errors.Is(err, kerrors.ErrEnvelopeMalformed) {
		t.Fatalf("Expected ErrEnvelopeMalformed, got %v", err)
	}
}
