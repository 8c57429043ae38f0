// Package envelope implements multi-recipient field-level envelope
// encryption.
//
// Each sensitive field value is sealed under a fresh AES-256-GCM key with a
// fresh 96-bit IV, and that key is RSA-OAEP-wrapped once per authorized
// recipient. Holding a wrapped key slot is the sole access-control
// mechanism: a principal absent from the list is provably unable to
// decrypt, and there is no secondary check.
//
// Envelopes are self-contained and independent; a failure sealing or
// opening one field never affects any other. Seal and Open hold no state
// between calls and are safe to invoke concurrently as long as each call
// supplies its own key material.
//
// Who may read a partition is decided outside this package and injected as
// a RecipientResolver. When that set changes, Rewrap re-seals an existing
// envelope for the new set using any currently-authorized private key.
package envelope
