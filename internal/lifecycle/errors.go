package lifecycle

import "errors"

var (
	// ErrNotFound covers absent records and records hidden by their
	// soft-delete tombstone; callers cannot tell the two apart.
	ErrNotFound = errors.New("task not found")

	// ErrUnauthorized is returned on a failed role or ownership check,
	// without detailing which.
	ErrUnauthorized = errors.New("not permitted")

	// ErrValidation is returned for malformed input at the boundary.
	ErrValidation = errors.New("invalid input")

	// ErrOperationFailed is the collapsed form of every unexpected
	// persistence failure; the cause is logged, not surfaced.
	ErrOperationFailed = errors.New("operation failed")

	ErrStoreNil   = errors.New("store is nil")
	ErrScannerNil = errors.New("scanner is nil")
)
