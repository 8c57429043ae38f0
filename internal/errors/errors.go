package errors

import "errors"

// Envelope errors indicate failures in the cryptographic core. These are
// the only errors the seal/open/rewrap paths ever return, and their
// messages deliberately carry no detail about key material or plaintext.
var (
	// ErrKeyGeneration indicates the RSA key pair could not be generated.
	ErrKeyGeneration = errors.New("failed to generate key pair")

	// ErrEmptyRecipientSet indicates sealing was attempted with no recipients.
	// Sealing for nobody would produce permanently unreadable data, so this
	// is always a caller bug and must block the write.
	ErrEmptyRecipientSet = errors.New("cannot seal for an empty recipient set")

	// ErrRecipientKey indicates a recipient's public key is malformed or
	// unusable. The whole seal operation is aborted; partial envelopes are
	// never produced.
	ErrRecipientKey = errors.New("recipient public key is unusable")

	// ErrNotAuthorized indicates the principal has no wrapped key in the
	// envelope. This is the expected outcome for anyone outside the
	// recipient set at seal time, not an exceptional condition.
	ErrNotAuthorized = errors.New("principal is not a recipient of this envelope")

	// ErrDecryptionFailed indicates the unwrap or the authenticated
	// decryption failed. Wrong key and tampered data are deliberately
	// indistinguishable to the caller.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrEnvelopeMalformed indicates the stored envelope record could not
	// be decoded.
	ErrEnvelopeMalformed = errors.New("envelope record is malformed")
)

// Key custody errors indicate problems with private key files or holdings.
var (
	// ErrKeyImport indicates a private key file could not be decoded.
	ErrKeyImport = errors.New("private key file is malformed")

	// ErrNoKeyLoaded indicates no private key is held for this session.
	// The user must import or load their key first.
	ErrNoKeyLoaded = errors.New("no private key loaded")

	// ErrPrivateKeyNotFound indicates the user's private key could not be located.
	ErrPrivateKeyNotFound = errors.New("private key not found")

	// ErrPublicKeyNotFound indicates a principal's public key could not be located.
	ErrPublicKeyNotFound = errors.New("public key not found")

	// ErrPublicKeyExists indicates a public key is already published for this principal.
	ErrPublicKeyExists = errors.New("public key already published")
)

// Vault state errors indicate issues with vault configuration or initialization.
var (
	// ErrVaultNotInitialized indicates no .fieldseal directory was found.
	ErrVaultNotInitialized = errors.New("vault has not been initialized")

	// ErrVaultAlreadyInitialized indicates a .fieldseal directory already exists.
	ErrVaultAlreadyInitialized = errors.New("vault has already been initialized")

	// ErrPartitionNotFound indicates the named partition does not exist in
	// the vault configuration.
	ErrPartitionNotFound = errors.New("partition not found")

	// ErrPartitionExists indicates the named partition is already configured.
	ErrPartitionExists = errors.New("partition already exists")

	// ErrPrincipalNotFound indicates the specified principal could not be found.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrSelfRevoke indicates a principal attempted to revoke their own access.
	ErrSelfRevoke = errors.New("cannot revoke your own access")

	// ErrNoSealedFiles indicates no envelope files matched the provided patterns.
	ErrNoSealedFiles = errors.New("no matching sealed files found")

	// ErrNoFieldFiles indicates no plaintext field files matched the provided patterns.
	ErrNoFieldFiles = errors.New("no matching field files found")

	// ErrInvalidDateFormat indicates a date filter could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")
)
