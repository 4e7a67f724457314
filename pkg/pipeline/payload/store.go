// Package payload implements the content-addressed blob store the
// runtime uses for row data, operation input/output, call request/
// response, and routing-reason payloads. Multiple logical references may
// share one hash.
package payload

import "context"

// Store is the content-addressed payload store contract: put, get,
// exists, delete. Implementations must make Put idempotent under
// concurrent calls with identical content (same hash, same bytes).
type Store interface {
	Put(ctx context.Context, data []byte) (hash string, err error)
	Get(ctx context.Context, hash string) ([]byte, error)
	Exists(ctx context.Context, hash string) (bool, error)
	Delete(ctx context.Context, hash string) error
}

// ErrNotFound is returned by Get when no blob exists for the given hash.
type ErrNotFound struct{ Hash string }

func (e *ErrNotFound) Error() string { return "payload not found: " + e.Hash }
