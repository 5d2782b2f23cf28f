package domain

import "errors"

var (
	// ErrValidation rejects an enqueue descriptor before any mutation.
	ErrValidation = errors.New("invalid job")
	// ErrDuplicateJob rejects an enqueue whose id already exists.
	ErrDuplicateJob = errors.New("job already exists")
	// ErrNotFound reports a control operation on a missing or
	// mismatched-state job.
	ErrNotFound = errors.New("job not found")
	// ErrContention reports a transient failure to acquire the store's
	// write transaction. Callers retry on the next poll; it is never
	// surfaced to users.
	ErrContention = errors.New("store is busy")
)
