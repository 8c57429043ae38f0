// Package recipients resolves who may read a partition and manages the
// published public keys those recipients are resolved against.
//
// Envelope sealing never decides access on its own; it takes a resolved
// recipient list. Directory is the production resolver: it unions the vault
// admins with a partition's curators (from the vault config) and pairs each
// member with the public key they published under .fieldseal/recipients.
//
// Resolution is all-or-nothing. If any entitled principal is missing a
// published key, the resolution fails rather than sealing an envelope a
// rightful recipient could never open.
package recipients
