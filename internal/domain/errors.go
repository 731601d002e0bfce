package domain

import "errors"

// Batch error taxonomy. Every failure is terminal for the current run.
var (
	// ErrInvalidArgument is returned for malformed or out-of-range input:
	// non-positive counts, probabilities outside [0,1], empty collections.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingResource is returned when a referenced input or model file does not exist.
	ErrMissingResource = errors.New("missing resource")

	// ErrSchemaMismatch is returned when tabular input lacks required columns
	// or carries values of the wrong type.
	ErrSchemaMismatch = errors.New("schema mismatch")
)
