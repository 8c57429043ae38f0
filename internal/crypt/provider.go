package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

const (
	// SymmetricKeySize is the AES-256 key length in bytes.
	SymmetricKeySize = 32

	// IVSize is the GCM nonce length in bytes (96 bits).
	IVSize = 12

	// RSAKeyBits is the modulus length for generated key pairs.
	RSAKeyBits = 2048
)

// Provider is the narrow cryptographic capability surface the envelope layer
// is built against: random generation, RSA-OAEP key wrapping, and AES-GCM
// sealing. Production code uses StdProvider; tests substitute deterministic
// or failing implementations.
type Provider interface {
	// RandomBytes returns n bytes from a cryptographically secure source.
	RandomBytes(n int) ([]byte, error)

	// GenerateKeyPair generates a fresh RSA key pair (RSAKeyBits modulus,
	// public exponent 65537).
	GenerateKeyPair() (*rsa.PrivateKey, error)

	// WrapKey encrypts a symmetric key under a recipient's public key
	// using RSA-OAEP with SHA-256.
	WrapKey(pub *rsa.PublicKey, key []byte) ([]byte, error)

	// UnwrapKey reverses WrapKey with the matching private key.
	UnwrapKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error)

	// SealBytes encrypts plaintext with AES-256-GCM under (key, iv).
	// The returned ciphertext includes the authentication tag.
	SealBytes(key, iv, plaintext []byte) ([]byte, error)

	// OpenBytes decrypts and authenticates SealBytes output.
	OpenBytes(key, iv, ciphertext []byte) ([]byte, error)
}

// StdProvider implements Provider with the standard library's crypto
// primitives. It holds no state and is safe for concurrent use.
type StdProvider struct{}

// NewProvider returns the production crypto provider.
func NewProvider() StdProvider {
	return StdProvider{}
}

func (StdProvider) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return buf, nil
}

func (StdProvider) GenerateKeyPair() (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGeneration, err)
	}
	return privateKey, nil
}

func (StdProvider) WrapKey(pub *rsa.PublicKey, key []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
}

func (StdProvider) UnwrapKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
}

func (StdProvider) SealBytes(key, iv, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key, len(iv))
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}

func (StdProvider) OpenBytes(key, iv, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key, len(iv))
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, iv, ciphertext, nil)
}

func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("symmetric key must be %d bytes, got %d", SymmetricKeySize, len(key))
	}
	if nonceSize != IVSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", IVSize, nonceSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Zeroize overwrites key material in place. Callers zeroize transient
// symmetric keys as soon as every recipient wrap has been produced.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
