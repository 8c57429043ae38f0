// Package crypt provides the cryptographic primitives for Fieldseal.
//
// # Architecture
//
// Fieldseal uses hybrid envelope encryption:
//
//  1. A random 256-bit AES key encrypts each sensitive field with AES-GCM
//  2. That key is RSA-OAEP-wrapped once per authorized reader's public key
//  3. Readers unwrap the field key with their private key, then open the field
//
// This package supplies the pieces the envelope layer composes: the
// Provider capability interface with its standard-library implementation,
// RSA key pair generation and serialization, and the session Custodian
// that owns the user's private key.
//
// # Key Custody
//
// Private keys never reach any server or database. A key exists in three
// places only: the user's key directory (written at creation and import),
// the export file the user explicitly requests, and the Custodian's memory
// during a session. RSA keys are 2048 bits with OAEP/SHA-256 padding;
// symmetric keys are 32 bytes with 12-byte GCM nonces.
//
// # Key Formats
//
// Export writes PKCS#8 PEM. Import additionally accepts PKCS#1 and OpenSSH
// private keys, including passphrase-protected OpenSSH keys when a terminal
// prompt is available.
package crypt
