// Package audit appends operation records to a vault's append-only log.
//
// The log lives at .fieldseal/audit.jsonl, one JSON object per line.
// Writes are best-effort: an unwritable log never blocks the operation it
// describes. Entries record who did what (seal, open, grant, revoke, and
// so on) and never include plaintext field values or key material.
package audit
