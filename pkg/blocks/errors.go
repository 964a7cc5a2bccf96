package blocks

import "errors"

var (
	// ErrNotFound reports that a referenced page, block, or template no
	// longer exists. It is always safe to surface to the caller as a
	// stale reference: re-fetch the tree and retry against current state.
	ErrNotFound = errors.New("not found")

	// ErrCycle reports that a reparent would make a block its own
	// ancestor. Client-input validation failure, never retried.
	ErrCycle = errors.New("reparent would create a cycle")
)
