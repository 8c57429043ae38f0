package envelope

import "crypto/rsa"

// Recipient is a principal entitled to open envelopes sealed for it.
type Recipient struct {
	ID        string
	PublicKey *rsa.PublicKey
}

// RecipientResolver reports who may currently read a data partition. The
// envelope layer trusts the returned set as authoritative at seal time and
// has no knowledge of the authorization policy behind it; implementations
// must return a non-empty set of structurally valid public keys.
type RecipientResolver interface {
	ResolveRecipients(partitionID string) ([]Recipient, error)
}
