package cli

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g. Ctrl+C).
	ErrAborted = errors.New("cli: aborted")
	// ErrInvalidAssignment is returned for -set values without a name.
	ErrInvalidAssignment = errors.New("cli: assignment must look like name=value")
)
