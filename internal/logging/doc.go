// Package logger provides leveled, colored CLI logging.
//
// Info output appears only with --verbose, debug output only with --debug.
// Warnings and errors always go to stderr. Nothing in this package ever
// receives plaintext field values or private key material; callers log
// paths, principal identifiers, and counts only.
package logger
