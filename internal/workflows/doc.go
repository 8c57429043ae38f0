// Package workflows provides high-level orchestration for Fieldseal commands.
//
// Workflows coordinate multiple operations across packages (configs,
// envelope, recipients, audit) to implement complete user-facing features.
// Each workflow handles a single command's business logic, independent of
// CLI concerns like flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Loading configuration (user and vault)
//   - Validating prerequisites and permissions
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Init: Initializes a new vault
//   - Create: Creates a partition in the vault
//   - Seal: Seals plaintext field files into envelopes
//   - Open: Opens envelopes back to plaintext field files
//   - Rewrap: Re-seals a partition under its current recipient set
//   - Grant: Adds a principal to a partition and rewraps
//   - Revoke: Removes a principal from a partition and rewraps
//   - ExportKey: Exports the user's private key to a file
//   - ImportKey: Imports a private key file into local custody
//   - Access: Lists principals and their partition entitlements
//   - Log: Reads and filters the audit log
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Open(ctx, opts)
//	if errors.Is(err, kerrors.ErrNotAuthorized) {
//	    // Show user-friendly access message
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// This enables cancellation, timeouts, and passing request-scoped values.
//
// # Access Changes
//
// Grant and Revoke rewrap every affected envelope synchronously, in the
// same operation that edits the membership. A membership change that is
// not yet reflected in the envelopes on disk grants nothing and revokes
// nothing; the wrapped-key sets are the only access control that counts.
package workflows
