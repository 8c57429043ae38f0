package recipients

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldseal/fieldseal/internal/configs"
	"github.com/fieldseal/fieldseal/internal/crypt"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

func publishTestKey(t *testing.T, dir string, principalUUID string) {
	t.Helper()

	provider := crypt.NewProvider()
	privateKey, err := provider.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	if err := crypt.SavePublicKey(&privateKey.PublicKey, filepath.Join(dir, principalUUID+".pub")); err != nil {
		t.Fatalf("SavePublicKey failed: %v", err)
	}
}

func testVaultConfig() *configs.VaultConfig {
	return &configs.VaultConfig{
		Admins: []string{"uuid-admin"},
		Partitions: map[string]configs.Partition{
			"clients": {Curators: []string{"uuid-curator"}},
		},
	}
}

func TestResolveRecipientsUnionsAdminsAndCurators(t *testing.T) {
	keysDir := t.TempDir()
	publishTestKey(t, keysDir, "uuid-admin")
	publishTestKey(t, keysDir, "uuid-curator")

	directory := NewDirectory(testVaultConfig(), keysDir)

	resolved, err := directory.ResolveRecipients("clients")
	if err != nil {
		t.Fatalf("ResolveRecipients failed: %v", err)
	}

	if len(resolved) != 2 {
		t.Fatalf("Expected 2 recipients, got %d", len(resolved))
	}

	ids := map[string]bool{}
	for _, r := range resolved {
		if r.PublicKey == nil {
			t.Errorf("Recipient %s has nil public key", r.ID)
		}
		ids[r.ID] = true
	}

	if !ids["uuid-admin"] || !ids["uuid-curator"] {
		t.Errorf("Expected admin and curator in recipient set, got %v", ids)
	}
}

func TestResolveRecipientsUnknownPartition(t *testing.T) {
	directory := NewDirectory(testVaultConfig(), t.TempDir())

	_, err := directory.ResolveRecipients("ghost")
	if !errors.Is(err, kerrors.ErrPartitionNotFound) {
		t.Fatalf("Expected ErrPartitionNotFound, got %v", err)
	}
}

func TestResolveRecipientsEmptyMembership(t *testing.T) {
	config := &configs.VaultConfig{
		Partitions: map[string]configs.Partition{
			"orphaned": {},
		},
	}
	directory := NewDirectory(config, t.TempDir())

	_, err := directory.ResolveRecipients("orphaned")
	if !errors.Is(err, kerrors.ErrEmptyRecipientSet) {
		t.Fatalf("Expected ErrEmptyRecipientSet, got %v", err)
	}
}

func TestResolveRecipientsMissingPublishedKey(t *testing.T) {
	keysDir := t.TempDir()
	publishTestKey(t, keysDir, "uuid-admin")
	// uuid-curator never published a key.

	directory := NewDirectory(testVaultConfig(), keysDir)

	_, err := directory.ResolveRecipients("clients")
	if !errors.Is(err, kerrors.ErrPublicKeyNotFound) {
		t.Fatalf("Expected ErrPublicKeyNotFound, got %v", err)
	}
}

func TestResolveRecipientsCorruptPublishedKey(t *testing.T) {
	keysDir := t.TempDir()
	publishTestKey(t, keysDir, "uuid-admin")
	if err := os.WriteFile(filepath.Join(keysDir, "uuid-curator.pub"), []byte("not a key"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	directory := NewDirectory(testVaultConfig(), keysDir)

	_, err := directory.ResolveRecipients("clients")
	if !errors.Is(err, kerrors.ErrRecipientKey) {
		t.Fatalf("Expected ErrRecipientKey, got %v", err)
	}
}

func TestPublishKeyAndHasPublishedKey(t *testing.T) {
	keysDir := t.TempDir()
	directory := NewDirectory(testVaultConfig(), keysDir)

	provider := crypt.NewProvider()
	privateKey, err := provider.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	keyBytes, err := crypt.MarshalPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKey failed: %v", err)
	}

	if directory.HasPublishedKey("uuid-new") {
		t.Fatal("Expected no published key before publishing")
	}

	if err := directory.PublishKey("uuid-new", keyBytes); err != nil {
		t.Fatalf("PublishKey failed: %v", err)
	}

	if !directory.HasPublishedKey("uuid-new") {
		t.Fatal("Expected published key after publishing")
	}
}

func TestPublishKeyRefusesOverwrite(t *testing.T) {
	keysDir := t.TempDir()
	directory := NewDirectory(testVaultConfig(), keysDir)

	provider := crypt.NewProvider()
	privateKey, err := provider.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	keyBytes, err := crypt.MarshalPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicKey failed: %v", err)
	}

	if err := directory.PublishKey("uuid-dup", keyBytes); err != nil {
		t.Fatalf("First PublishKey failed: %v", err)
	}

	err = directory.PublishKey("uuid-dup", keyBytes)
	if !errors.Is(err, kerrors.ErrPublicKeyExists) {
		t.Fatalf("Expected ErrPublicKeyExists, got %v", err)
	}
}

func TestPublishKeyRejectsGarbage(t *testing.T) {
	directory := NewDirectory(testVaultConfig(), t.TempDir())

	if err := directory.PublishKey("uuid-bad", []byte("garbage")); err == nil {
		t.Fatal("Expected PublishKey to reject a malformed key")
	}
}

func TestRemoveKey(t *testing.T) {
	keysDir := t.TempDir()
	publishTestKey(t, keysDir, "uuid-gone")
	directory := NewDirectory(testVaultConfig(), keysDir)

	if err := directory.RemoveKey("uuid-gone"); err != nil {
		t.Fatalf("RemoveKey failed: %v", err)
	}

	if directory.HasPublishedKey("uuid-gone") {
		t.Fatal("Expected key to be removed")
	}

	// Removing a key that was never published is not an error.
	if err := directory.RemoveKey("uuid-never"); err != nil {
		t.Fatalf("RemoveKey on missing key failed: %v", err)
	}
}
