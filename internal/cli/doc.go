// Package cli provides the questkeeper command line.
//
// It wires configuration, local storage, the tracker service and an
// interactive REPL. Running the binary without a subcommand opens the REPL,
// which runs the countdowns and prints an alert when an account's daily
// quest becomes available again. Subcommands (list, add, set, done, ...)
// perform a single operation and exit.
//
// Accounts are referenced by row number as shown by list, by full id or by
// a unique id prefix.
package cli
