package envelope

import (
	"crypto/rsa"
	"fmt"

	"github.com/fieldseal/fieldseal/internal/crypt"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// WrappedKey is one recipient's copy of an envelope's symmetric key,
// RSA-OAEP-encrypted under that recipient's public key.
type WrappedKey struct {
	Recipient string
	Key       []byte
}

// EncryptedField is a sealed field value: AES-256-GCM ciphertext (tag
// included), the 96-bit IV used for that one operation, and the symmetric
// key wrapped once per authorized recipient. Envelopes are immutable;
// editing the underlying value produces a brand-new envelope with a fresh
// key, IV, and wraps.
type EncryptedField struct {
	Ciphertext  []byte
	IV          []byte
	WrappedKeys []WrappedKey
}

// recipientKey returns the wrapped key for a principal, if present.
func (e *EncryptedField) recipientKey(principalID string) ([]byte, bool) {
	for _, wk := range e.WrappedKeys {
		if wk.Recipient == principalID {
			return wk.Key, true
		}
	}
	return nil, false
}

// Recipients returns the principal IDs holding a wrapped key, in envelope order.
func (e *EncryptedField) Recipients() []string {
	ids := make([]string, len(e.WrappedKeys))
	for i, wk := range e.WrappedKeys {
		ids[i] = wk.Recipient
	}
	return ids
}

// Seal encrypts plaintext for exactly the given recipients.
//
// A fresh symmetric key and IV are generated on every call, so sealing the
// same value twice never reuses a (key, iv) pair. The key is wrapped for
// every recipient or the whole operation fails; a partial envelope would
// give a false impression of completeness and is never returned. The
// symmetric key is zeroized before return.
//
// Returns ErrEmptyRecipientSet when recipients is empty and ErrRecipientKey
// when any recipient's public key is missing, duplicated, or unusable.
func Seal(p crypt.Provider, plaintext string, recipients []Recipient) (*EncryptedField, error) {
	if len(recipients) == 0 {
		return nil, kerrors.ErrEmptyRecipientSet
	}

	seen := make(map[string]bool, len(recipients))
	for _, r := range recipients {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: recipient with empty id", kerrors.ErrRecipientKey)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate recipient %s", kerrors.ErrRecipientKey, r.ID)
		}
		seen[r.ID] = true
		if r.PublicKey == nil {
			return nil, fmt.Errorf("%w: recipient %s has no public key", kerrors.ErrRecipientKey, r.ID)
		}
	}

	symKey, err := p.RandomBytes(crypt.SymmetricKeySize)
	if err != nil {
		return nil, fmt.Errorf("generating symmetric key: %w", err)
	}
	defer crypt.Zeroize(symKey)

	iv, err := p.RandomBytes(crypt.IVSize)
	if err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}

	ciphertext, err := p.SealBytes(symKey, iv, []byte(plaintext))
	if err != nil {
		return nil, fmt.Errorf("sealing field: %w", err)
	}

	wrapped := make([]WrappedKey, 0, len(recipients))
	for _, r := range recipients {
		wk, err := p.WrapKey(r.PublicKey, symKey)
		if err != nil {
			return nil, fmt.Errorf("%w: wrapping for %s: %v", kerrors.ErrRecipientKey, r.ID, err)
		}
		wrapped = append(wrapped, WrappedKey{Recipient: r.ID, Key: wk})
	}

	return &EncryptedField{
		Ciphertext:  ciphertext,
		IV:          iv,
		WrappedKeys: wrapped,
	}, nil
}

// Open decrypts an envelope for one principal.
//
// The principal must hold a wrapped key in the envelope; anyone else fails
// with ErrNotAuthorized, which is the expected outcome for a principal
// removed from a partition before re-encryption ran. A failed unwrap and a
// failed authentication check both collapse to ErrDecryptionFailed so the
// error cannot be used as an oracle. Decryption is all or nothing.
func Open(p crypt.Provider, env *EncryptedField, principalID string, privateKey *rsa.PrivateKey) (string, error) {
	if env == nil || len(env.Ciphertext) == 0 || len(env.IV) == 0 {
		return "", kerrors.ErrEnvelopeMalformed
	}
	if privateKey == nil {
		return "", kerrors.ErrNoKeyLoaded
	}

	wrappedKey, ok := env.recipientKey(principalID)
	if !ok {
		return "", kerrors.ErrNotAuthorized
	}

	symKey, err := p.UnwrapKey(privateKey, wrappedKey)
	if err != nil {
		return "", kerrors.ErrDecryptionFailed
	}
	defer crypt.Zeroize(symKey)

	plaintext, err := p.OpenBytes(symKey, env.IV, env.Ciphertext)
	if err != nil {
		return "", kerrors.ErrDecryptionFailed
	}

	return string(plaintext), nil
}
