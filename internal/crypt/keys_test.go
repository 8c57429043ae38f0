package crypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate test key: %v", err)
	}
	return key
}

func TestMarshalParsePrivateKey_RoundTrip(t *testing.T) {
	key := generateTestKey(t)

	pemBytes, err := MarshalPrivateKey(key)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	parsed, err := ParsePrivateKey(pemBytes)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("Parsed key modulus does not match original")
	}
}

func TestParsePrivateKey_PKCS1(t *testing.T) {
	key := generateTestKey(t)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	parsed, err := ParsePrivateKey(pemBytes)
	if err != nil {
		t.Fatalf("Expected PKCS#1 key to parse, got: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("Parsed key modulus does not match original")
	}
}

func TestParsePrivateKey_Malformed(t *testing.T) {
	if _, err := ParsePrivateKey([]byte("not a key")); !errors.Is(err, kerrors.ErrKeyImport) {
		t.Errorf("Expected ErrKeyImport, got: %v", err)
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}})
	if _, err := ParsePrivateKey(pemBytes); !errors.Is(err, kerrors.ErrKeyImport) {
		t.Errorf("Expected ErrKeyImport for unsupported PEM type, got: %v", err)
	}
}

func TestMarshalParsePublicKey_RoundTrip(t *testing.T) {
	key := generateTestKey(t)

	pemBytes, err := MarshalPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	parsed, err := ParsePublicKey(pemBytes)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("Parsed public key does not match original")
	}
}

func TestParsePublicKey_Malformed(t *testing.T) {
	if _, err := ParsePublicKey([]byte("garbage")); err == nil {
		t.Error("Expected error for non-PEM input")
	}
}

func TestSaveLoadKeys(t *testing.T) {
	tmpDir := t.TempDir()
	key := generateTestKey(t)

	privPath := filepath.Join(tmpDir, "keys", "vault")
	pubPath := privPath + ".pub"

	if err := SavePrivateKey(key, privPath); err != nil {
		t.Fatalf("Failed to save private key: %v", err)
	}
	if err := SavePublicKey(&key.PublicKey, pubPath); err != nil {
		t.Fatalf("Failed to save public key: %v", err)
	}

	info, err := os.Stat(privPath)
	if err != nil {
		t.Fatalf("Failed to stat private key: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions on private key, got: %o", perm)
	}

	loadedPriv, err := LoadPrivateKey(privPath)
	if err != nil {
		t.Fatalf("Failed to load private key: %v", err)
	}
	if loadedPriv.N.Cmp(key.N) != 0 {
		t.Error("Loaded private key does not match original")
	}

	loadedPub, err := LoadPublicKey(pubPath)
	if err != nil {
		t.Fatalf("Failed to load public key: %v", err)
	}
	if loadedPub.N.Cmp(key.N) != 0 {
		t.Error("Loaded public key does not match original")
	}
}

func TestLoadPrivateKey_Missing(t *testing.T) {
	if _, err := LoadPrivateKey(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing key file")
	}
}
