// Package errors defines sentinel errors for Fieldseal operations.
//
// Errors are grouped by concern: envelope cryptography, key custody, and
// vault state. Callers match them with errors.Is after workflow layers have
// wrapped them with context.
//
// The cryptographic sentinels follow a strict disclosure policy: a failed
// unwrap and a failed authentication check both surface as
// ErrDecryptionFailed, so an attacker holding an envelope cannot use the
// error as an oracle for which step rejected it.
package errors
