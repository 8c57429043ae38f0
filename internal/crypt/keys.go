package crypt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// PassphrasePrompt asks the user for a key passphrase. Implementations must
// not echo the input.
type PassphrasePrompt func(prompt string) ([]byte, error)

// MarshalPrivateKey returns the PKCS#8 PEM encoding of an RSA private key.
// This is the interchange format written by key export.
func MarshalPrivateKey(privateKey *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// MarshalPublicKey returns the PKIX PEM encoding of an RSA public key.
func MarshalPublicKey(publicKey *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParsePrivateKey decodes a private key from PKCS#8, PKCS#1, or OpenSSH PEM.
// Passphrase-protected OpenSSH keys fail with ErrKeyImport; use
// ParsePrivateKeyWithPrompt when a terminal is available.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	return parsePrivateKey(data, nil)
}

// ParsePrivateKeyWithPrompt decodes a private key like ParsePrivateKey, but
// asks for a passphrase via prompt when the key is OpenSSH-encrypted.
func ParsePrivateKeyWithPrompt(data []byte, prompt PassphrasePrompt) (*rsa.PrivateKey, error) {
	return parsePrivateKey(data, prompt)
}

func parsePrivateKey(data []byte, prompt PassphrasePrompt) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", kerrors.ErrKeyImport)
	}

	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyImport, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA private key", kerrors.ErrKeyImport)
		}
		return rsaKey, nil

	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyImport, err)
		}
		return key, nil

	case "OPENSSH PRIVATE KEY":
		return parseOpenSSHPrivateKey(data, prompt)

	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", kerrors.ErrKeyImport, block.Type)
	}
}

func parseOpenSSHPrivateKey(data []byte, prompt PassphrasePrompt) (*rsa.PrivateKey, error) {
	key, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if !errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyImport, err)
		}
		if prompt == nil {
			return nil, fmt.Errorf("%w: key is passphrase-protected", kerrors.ErrKeyImport)
		}
		passphrase, perr := prompt("Enter passphrase for private key: ")
		if perr != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyImport, perr)
		}
		defer Zeroize(passphrase)
		key, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyImport, err)
		}
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", kerrors.ErrKeyImport)
	}
	return rsaKey, nil
}

// ParsePublicKey decodes a PKIX PEM public key.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPub, nil
}

// LoadPrivateKey loads an RSA private key from disk.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(data)
}

// LoadPublicKey loads an RSA public key from disk.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePublicKey(data)
}

// SavePrivateKey writes a private key to path in PKCS#8 PEM, creating
// parent directories with owner-only permissions.
func SavePrivateKey(privateKey *rsa.PrivateKey, path string) error {
	pemBytes, err := MarshalPrivateKey(privateKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory for private key: %w", err)
	}
	if err := os.WriteFile(path, pemBytes, 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	return nil
}

// SavePublicKey writes a public key to path in PKIX PEM.
func SavePublicKey(publicKey *rsa.PublicKey, path string) error {
	pemBytes, err := MarshalPublicKey(publicKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory for public key: %w", err)
	}
	if err := os.WriteFile(path, pemBytes, 0600); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}
