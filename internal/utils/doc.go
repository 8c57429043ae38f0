// Package utils provides small host-environment helpers: stdin reading,
// TTY passphrase prompts, vault root discovery, and atomic file writes.
package utils
