package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilFetch   = errors.New("cache: fetch function is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// FetchFunc computes the value for a key on a cache miss. It may be
// expensive; the facade guarantees at most one concurrent invocation
// per key. FetchFunc must be safe to collapse: callers sharing one
// invocation all receive its result.
type FetchFunc func(ctx context.Context) (any, error)

// Store is the bounded TTL mapping behind the facade.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get and Peek never error; they return (nil, false) on miss,
//   on expiry, and on backend failure (degrade to miss).
// - Eviction: Set evicts the entry with the smallest access count,
//   breaking ties by oldest insertion, when the store is at capacity.
type Store interface {
	// Get retrieves a fresh value and increments its access count.
	Get(ctx context.Context, key string) (any, bool)

	// Peek is Get without touching the access count.
	Peek(ctx context.Context, key string) (any, bool)

	// Set stores a value with the given TTL, evicting if at capacity.
	// Returns whether an entry was evicted to make room.
	Set(ctx context.Context, key string, value any, ttl time.Duration) (evicted bool, err error)

	// Delete removes one entry. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Len reports the number of live entries.
	Len(ctx context.Context) int

	// RemoveExpired removes every expired entry and reports how many.
	RemoveExpired(ctx context.Context) int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
