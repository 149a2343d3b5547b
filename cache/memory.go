package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxSize bounds a store when no capacity is configured.
const DefaultMaxSize = 128

type memoryEntry struct {
	value       any
	insertedAt  time.Time
	expiresAt   time.Time
	accessCount int
}

// MemoryStore is an in-memory Store with least-used-then-oldest
// eviction. Eviction scans all entries, which is fine for the bounded
// sizes (tens to low hundreds) this cache targets.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxSize int

	// now is swappable for TTL tests.
	now func() time.Time
}

// NewMemoryStore creates an in-memory store holding at most maxSize
// entries. maxSize <= 0 falls back to DefaultMaxSize.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves a fresh value and increments its access count.
func (s *MemoryStore) Get(_ context.Context, key string) (any, bool) {
	return s.lookup(key, true)
}

// Peek is Get without touching the access count.
func (s *MemoryStore) Peek(_ context.Context, key string) (any, bool) {
	return s.lookup(key, false)
}

func (s *MemoryStore) lookup(key string, countAccess bool) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	if s.now().After(entry.expiresAt) {
		// Expired - clean up lazily
		delete(s.entries, key)
		return nil, false
	}

	if countAccess {
		entry.accessCount++
	}
	return entry.value, true
}

// Set stores a value with the given TTL, evicting the least-used entry
// if the store is at capacity. TTL<=0 means don't cache.
func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := false
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		s.evictLocked()
		evicted = true
	}

	now := s.now()
	s.entries[key] = &memoryEntry{
		value:      value,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}
	return evicted, nil
}

// evictLocked removes the entry with the smallest access count,
// breaking ties by oldest insertion. Entries never read rank below
// entries with any historical hit, regardless of recency.
func (s *MemoryStore) evictLocked() {
	var victim string
	var victimEntry *memoryEntry

	for key, entry := range s.entries {
		if victimEntry == nil ||
			entry.accessCount < victimEntry.accessCount ||
			(entry.accessCount == victimEntry.accessCount && entry.insertedAt.Before(victimEntry.insertedAt)) {
			victim = key
			victimEntry = entry
		}
	}

	if victimEntry != nil {
		delete(s.entries, victim)
	}
}

// Delete removes one entry. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*memoryEntry)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries, expired ones included until
// sweep or lazy removal.
func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RemoveExpired removes every expired entry and reports how many.
func (s *MemoryStore) RemoveExpired(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
