package domain

import "errors"

// Failure classes of a run. Callers wrap these with context and the CLI
// maps each one to a distinct exit code.
var (
	// ErrInvalidFormat means the persisted state could not be parsed
	ErrInvalidFormat = errors.New("invalid offset file format")

	// ErrStat means a target file could not be stat'ed
	ErrStat = errors.New("cannot stat file")

	// ErrInputNotReadable means a target file could not be opened for reading
	ErrInputNotReadable = errors.New("file cannot be read")

	// ErrOutput means the output sink rejected written bytes
	ErrOutput = errors.New("output write failed")

	// ErrCannotCreate means the state file could not be created or written
	ErrCannotCreate = errors.New("state file cannot be created")

	// ErrCannotSetPermissions means the state file could not be restricted to its owner
	ErrCannotSetPermissions = errors.New("cannot set permissions on state file")

	// ErrLocked means another invocation holds the state lock
	ErrLocked = errors.New("state is locked by another invocation")
)
