package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonwraymond/reqshape/kv"
)

// kvEntry is the persisted form of one cache entry.
type kvEntry struct {
	Value       json.RawMessage `json:"value"`
	InsertedAt  time.Time       `json:"inserted_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	AccessCount int             `json:"access_count"`
}

// KVStore is a Store persisted through a transactional kv.Store.
// Values round-trip through JSON, so callers get back what
// encoding/json produces for their type (maps decode as
// map[string]any, numbers as float64).
//
// Backend failures never surface: reads degrade to a miss and the
// facade falls through to a fresh fetch.
type KVStore struct {
	backend kv.Store
	prefix  string
	maxSize int

	now func() time.Time
}

// NewKVStore creates a store persisting entries under "cache:<name>:"
// in backend. maxSize <= 0 falls back to DefaultMaxSize.
func NewKVStore(backend kv.Store, name string, maxSize int) *KVStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &KVStore{
		backend: backend,
		prefix:  "cache:" + name + ":",
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves a fresh value and increments its access count. The
// read, freshness check, and count bump run in one backend
// transaction.
func (s *KVStore) Get(ctx context.Context, key string) (any, bool) {
	var value any
	var fresh bool

	err := s.backend.Update(ctx, s.prefix+key, func(current []byte, found bool) ([]byte, error) {
		if !found {
			return nil, kv.ErrNotFound
		}

		var entry kvEntry
		if err := json.Unmarshal(current, &entry); err != nil {
			// Corrupt record: drop it and treat as a miss.
			return nil, nil
		}
		if s.now().After(entry.ExpiresAt) {
			// Expired - clean up lazily
			return nil, nil
		}

		if err := json.Unmarshal(entry.Value, &value); err != nil {
			return nil, nil
		}
		fresh = true

		entry.AccessCount++
		return json.Marshal(entry)
	})
	if err != nil || !fresh {
		return nil, false
	}
	return value, true
}

// Peek is Get without touching the access count. Expired entries are
// reported absent but left for the sweep.
func (s *KVStore) Peek(ctx context.Context, key string) (any, bool) {
	raw, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, false
	}

	var entry kvEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if s.now().After(entry.ExpiresAt) {
		return nil, false
	}

	var value any
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		return nil, false
	}
	return value, true
}

// Set stores a value with the given TTL, evicting the least-used entry
// if the store is at capacity. TTL<=0 means don't cache.
//
// The capacity check and the insert are separate backend calls, so
// concurrent inserts can briefly overshoot maxSize; the next Set or
// sweep pulls it back. The strict bound holds for sequential inserts.
func (s *KVStore) Set(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	evicted := false
	if _, err := s.backend.Get(ctx, s.prefix+key); err != nil {
		// New key: make room first.
		if s.Len(ctx) >= s.maxSize {
			evicted = s.evict(ctx)
		}
	}

	now := s.now()
	raw, err := json.Marshal(kvEntry{
		Value:      payload,
		InsertedAt: now,
		ExpiresAt:  now.Add(ttl),
	})
	if err != nil {
		return evicted, err
	}

	return evicted, s.backend.Set(ctx, s.prefix+key, raw)
}

// evict removes the least-used-then-oldest entry. Returns false when
// nothing could be scanned or removed.
func (s *KVStore) evict(ctx context.Context) bool {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil || len(keys) == 0 {
		return false
	}

	var victim string
	var victimEntry *kvEntry

	for _, k := range keys {
		raw, err := s.backend.Get(ctx, k)
		if err != nil {
			continue
		}
		var entry kvEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if victimEntry == nil ||
			entry.AccessCount < victimEntry.AccessCount ||
			(entry.AccessCount == victimEntry.AccessCount && entry.InsertedAt.Before(victimEntry.InsertedAt)) {
			victim = k
			e := entry
			victimEntry = &e
		}
	}

	if victimEntry == nil {
		return false
	}
	return s.backend.Delete(ctx, victim) == nil
}

// Delete removes one entry. Idempotent - no error on miss.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.prefix+key)
}

// Clear removes all entries under this store's prefix.
func (s *KVStore) Clear(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.backend.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of persisted entries. Backend failures report
// zero.
func (s *KVStore) Len(ctx context.Context) int {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		return 0
	}
	return len(keys)
}

// RemoveExpired removes every expired entry and reports how many.
func (s *KVStore) RemoveExpired(ctx context.Context) int {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		return 0
	}

	now := s.now()
	removed := 0
	for _, k := range keys {
		raw, err := s.backend.Get(ctx, k)
		if err != nil {
			continue
		}
		var entry kvEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// Corrupt record: remove it along with the expired ones.
			if s.backend.Delete(ctx, k) == nil {
				removed++
			}
			continue
		}
		if now.After(entry.ExpiresAt) {
			if s.backend.Delete(ctx, k) == nil {
				removed++
			}
		}
	}
	return removed
}

// Ensure KVStore implements Store
var _ Store = (*KVStore)(nil)
