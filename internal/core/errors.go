package core

import "errors"

// Error taxonomy shared by the binding, the session and the cores.
// Callers wrap these with context and test for them with errors.Is.
var (
	// ErrInit means the core could not be created. Fatal to the session.
	ErrInit = errors.New("core init failed")

	// ErrLoad means the game could not be loaded. The session stays in
	// Created and a later surface-available retries the load.
	ErrLoad = errors.New("game load failed")

	// ErrRestore means save-RAM or a save state could not be restored.
	// The session continues as if no prior state existed.
	ErrRestore = errors.New("state restore failed")

	// ErrDisk means the requested disk index is not available.
	ErrDisk = errors.New("invalid disk index")

	// ErrInvalidState means an operation is not permitted in the current
	// lifecycle state.
	ErrInvalidState = errors.New("operation not permitted in current state")

	// ErrAlreadyCreated is returned for a second create without destroy.
	ErrAlreadyCreated = errors.New("core already created")

	// ErrDestroyed is returned for any operation after destroy.
	ErrDestroyed = errors.New("session destroyed")
)
