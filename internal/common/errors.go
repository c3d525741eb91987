// Package common defines sentinel errors and small helpers shared by the
// storage, service and CLI layers of questkeeper. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrCorruptData = errors.New("stored data is corrupt")

	// Vault errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrVaultLocked    = errors.New("vault is locked")
	ErrVaultRequired  = errors.New("dataset is encrypted, run with --vault")

	// CLI reference resolution.
	ErrAmbiguousRef = errors.New("reference matches more than one account")
)
