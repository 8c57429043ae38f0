// Package ui provides semantic text formatting for CLI output.
//
// Commands compose their final messages from these formatters instead of
// calling the color library directly, so plain-text fallbacks (NO_COLOR,
// dumb terminals, piped output) stay readable without per-command effort.
package ui
