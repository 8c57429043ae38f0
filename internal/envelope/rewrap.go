package envelope

import (
	"crypto/rsa"

	"github.com/fieldseal/fieldseal/internal/crypt"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// Rewrap produces a new envelope for a changed recipient set: the existing
// envelope is opened with a currently-authorized principal's key, then
// sealed again for newRecipients with a fresh symmetric key and IV.
//
// Any failure aborts the operation and returns nothing; the input envelope
// is never modified or destroyed here. Callers must durably store the new
// envelope before discarding the old one.
func Rewrap(p crypt.Provider, env *EncryptedField, principalID string, privateKey *rsa.PrivateKey, newRecipients []Recipient) (*EncryptedField, error) {
	// Reject an empty target set before touching any key material.
	if len(newRecipients) == 0 {
		return nil, kerrors.ErrEmptyRecipientSet
	}

	plaintext, err := Open(p, env, principalID, privateKey)
	if err != nil {
		return nil, err
	}

	return Seal(p, plaintext, newRecipients)
}
