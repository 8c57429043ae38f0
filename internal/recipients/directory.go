package recipients

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldseal/fieldseal/internal/configs"
	"github.com/fieldseal/fieldseal/internal/crypt"
	"github.com/fieldseal/fieldseal/internal/envelope"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// Directory resolves partition recipient sets from the vault config and the
// published public keys under .fieldseal/recipients. It implements
// envelope.RecipientResolver.
type Directory struct {
	Config  *configs.VaultConfig
	KeysDir string
}

// NewDirectory builds a Directory over a loaded vault config and the
// directory holding <principal-uuid>.pub files.
func NewDirectory(config *configs.VaultConfig, keysDir string) *Directory {
	return &Directory{Config: config, KeysDir: keysDir}
}

// ResolveRecipients returns the recipients entitled to a partition: the
// vault admins plus the partition's curators, each paired with their
// published public key. Every member must have a published key; a single
// missing or unreadable key fails the whole resolution so no envelope is
// ever sealed for a subset of the entitled principals.
func (d *Directory) ResolveRecipients(partitionID string) ([]envelope.Recipient, error) {
	members, ok := d.Config.PartitionMembers(partitionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPartitionNotFound, partitionID)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: partition %s has no admins or curators", kerrors.ErrEmptyRecipientSet, partitionID)
	}

	recipientList := make([]envelope.Recipient, 0, len(members))
	for _, principalUUID := range members {
		keyPath := filepath.Join(d.KeysDir, principalUUID+".pub")
		publicKey, err := crypt.LoadPublicKey(keyPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s has not published a key", kerrors.ErrPublicKeyNotFound, principalUUID)
			}
			return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrRecipientKey, principalUUID, err)
		}
		recipientList = append(recipientList, envelope.Recipient{
			ID:        principalUUID,
			PublicKey: publicKey,
		})
	}

	return recipientList, nil
}

// HasPublishedKey reports whether a principal has a public key on record.
func (d *Directory) HasPublishedKey(principalUUID string) bool {
	_, err := os.Stat(filepath.Join(d.KeysDir, principalUUID+".pub"))
	return err == nil
}

// PublishKey writes a principal's public key into the recipients directory.
// Publishing over an existing key is refused; revocation removes keys, a
// grant never silently replaces one.
func (d *Directory) PublishKey(principalUUID string, keyBytes []byte) error {
	if _, err := crypt.ParsePublicKey(keyBytes); err != nil {
		return err
	}

	keyPath := filepath.Join(d.KeysDir, principalUUID+".pub")
	if _, err := os.Stat(keyPath); err == nil {
		return fmt.Errorf("%w: %s", kerrors.ErrPublicKeyExists, principalUUID)
	}

	if err := os.MkdirAll(d.KeysDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(keyPath, keyBytes, 0644)
}

// RemoveKey deletes a principal's published public key, ignoring a key
// that was never published.
func (d *Directory) RemoveKey(principalUUID string) error {
	err := os.Remove(filepath.Join(d.KeysDir, principalUUID+".pub"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
