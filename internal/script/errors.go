package script

import "errors"

// Script loading and execution errors.
var (
	// ErrForbiddenImport is returned when a script imports a package
	// outside the whitelist.
	ErrForbiddenImport = errors.New("forbidden import")

	// ErrEvalFailed is returned when the interpreter rejects or fails
	// evaluating script source.
	ErrEvalFailed = errors.New("script evaluation failed")

	// ErrSetupMissing is returned when an evaluated script defines no
	// Setup function.
	ErrSetupMissing = errors.New("script defines no Setup function")

	// ErrSetupSignature is returned when Setup has the wrong signature.
	ErrSetupSignature = errors.New("Setup must have signature func(*host.Bot) error")

	// ErrSetupFailed is returned when Setup returns an error or panics.
	ErrSetupFailed = errors.New("script Setup failed")

	// ErrEvalTimeout is returned when evaluation outlives its context.
	ErrEvalTimeout = errors.New("script evaluation timed out")
)
