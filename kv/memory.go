package kv

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store implementation. It is intended for
// tests and single-process hosts that do not need persistence.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

// Get retrieves the value for key. Returns ErrNotFound on absence.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate stored bytes.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.entries[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes key. Idempotent - no error on absence.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Update atomically transforms the value for key with fn. The lock is
// held across the read, fn, and the write, so concurrent updates to
// the same key serialize.
func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, found := s.entries[key]

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if next == nil {
		delete(s.entries, key)
		return nil
	}

	stored := make([]byte, len(next))
	copy(stored, next)
	s.entries[key] = stored
	return nil
}

// Keys lists all keys that start with prefix.
func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
