// Package vaultfs handles the on-disk layout of a vault.
//
// A vault is a directory tree with a .fieldseal directory at its root:
//
//	<vault>/
//	  .fieldseal/
//	    config.toml     vault identity, principals, admins, partitions
//	    recipients/     published public keys (<principal-uuid>.pub)
//	    audit.jsonl     append-only operation log
//	  <partition>/
//	    <field>.sealed  envelope records
//
// Sealed files carry the .sealed suffix and live inside partition
// directories. File resolution supports literal paths, directories, and
// doublestar globs, always skipping the .fieldseal directory.
package vaultfs
