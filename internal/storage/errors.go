package storage

import "errors"

// Sentinel errors shared by every store implementation. Stores are
// append-only: a batch, dataset or run is written once and never updated.
var (
	// ErrNotFound means the requested applicant, scored row or run is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means an insert collided with an existing key
	// (dataset_id+customer_id, batch_id+customer_id, or run_id).
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput means the record failed store-level validation,
	// e.g. an empty batch id or a row violating a table constraint.
	ErrInvalidInput = errors.New("invalid input")
)
