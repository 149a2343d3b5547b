package kv

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned by Get when no value exists for the key.
	ErrNotFound = errors.New("kv: key not found")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("kv: store is closed")
)

// UpdateFunc transforms the current value of a key inside a
// transaction. found is false when no value exists. Returning nil
// bytes deletes the key; returning an error aborts the transaction
// without writing.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Store is a transactional key-value store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Atomicity: Update must execute the read, the UpdateFunc, and the
//   write as one unit; no other Update or Set for the same key may
//   interleave.
// - Context: methods should honor cancellation/deadlines.
type Store interface {
	// Get retrieves the value for key. Returns ErrNotFound on absence.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Idempotent - no error on absence.
	Delete(ctx context.Context, key string) error

	// Update atomically transforms the value for key with fn.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Keys lists all keys that start with prefix. An empty prefix
	// lists every key.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
