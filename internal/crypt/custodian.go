package crypt

import (
	"crypto/rsa"
	"fmt"
	"sync"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// Custodian owns the current user's private key for the duration of a
// session. The key lives only in memory; the sole persistence path is the
// explicit export/import file the user controls. Load and Clear are
// serialized so Current never observes a half-updated key.
type Custodian struct {
	mu  sync.Mutex
	key *rsa.PrivateKey
}

// NewCustodian returns an empty custodian.
func NewCustodian() *Custodian {
	return &Custodian{}
}

// Load parses keyBytes and holds the result, replacing any previously held
// key. Only structural decodability is checked here; whether the key can
// actually unwrap anything is discovered on first use.
func (c *Custodian) Load(keyBytes []byte) error {
	key, err := ParsePrivateKey(keyBytes)
	if err != nil {
		return err
	}
	c.LoadKey(key)
	return nil
}

// LoadKey holds an already-parsed private key.
func (c *Custodian) LoadKey(key *rsa.PrivateKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
}

// Current returns the held key, or false when the custodian is empty.
// An empty custodian is a normal precondition failure ("load your key"),
// not a crash.
func (c *Custodian) Current() (*rsa.PrivateKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == nil {
		return nil, false
	}
	return c.key, true
}

// MustCurrent returns the held key or ErrNoKeyLoaded.
func (c *Custodian) MustCurrent() (*rsa.PrivateKey, error) {
	key, ok := c.Current()
	if !ok {
		return nil, kerrors.ErrNoKeyLoaded
	}
	return key, nil
}

// Clear discards the held key. Idempotent; called at session end.
func (c *Custodian) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = nil
}

// ImportFromFile decodes a private key file, holds the key, and returns it
// for immediate use. Malformed content fails with ErrKeyImport.
func (c *Custodian) ImportFromFile(fileBytes []byte) (*rsa.PrivateKey, error) {
	return c.importFromFile(fileBytes, nil)
}

// ImportFromFileWithPrompt behaves like ImportFromFile, prompting for a
// passphrase when the key file is OpenSSH-encrypted.
func (c *Custodian) ImportFromFileWithPrompt(fileBytes []byte, prompt PassphrasePrompt) (*rsa.PrivateKey, error) {
	return c.importFromFile(fileBytes, prompt)
}

func (c *Custodian) importFromFile(fileBytes []byte, prompt PassphrasePrompt) (*rsa.PrivateKey, error) {
	key, err := ParsePrivateKeyWithPrompt(fileBytes, prompt)
	if err != nil {
		return nil, err
	}
	c.LoadKey(key)
	return key, nil
}

// ExportToFile packages a private key for user-initiated download: a label
// comment followed by the PKCS#8 PEM. PEM decoders skip the leading
// comment, so the output round-trips through ImportFromFile.
func ExportToFile(privateKey *rsa.PrivateKey, label string) ([]byte, error) {
	pemBytes, err := MarshalPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("# fieldseal private key: %s\n", label)
	return append([]byte(header), pemBytes...), nil
}
