package kv

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const defaultBucket = "reqshape"

// BoltStore is a bbolt-backed Store. All keys live in a single bucket;
// Update runs inside a bbolt write transaction, which gives the
// atomicity the Store contract requires.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
}

// OpenBolt opens (or creates) a bbolt-backed store at path.
func OpenBolt(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("kv: store path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("kv: open store: %w", err)
	}

	store := &BoltStore{db: db, bucket: []byte(defaultBucket)}
	if err := store.ensureBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *BoltStore) ensureBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return fmt.Errorf("kv: create bucket: %w", err)
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get retrieves the value for key. Returns ErrNotFound on absence.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("kv: bucket is missing")
		}
		stored := bucket.Get([]byte(key))
		if stored == nil {
			return ErrNotFound
		}
		// The slice is only valid inside the transaction.
		value = make([]byte, len(stored))
		copy(value, stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key.
func (s *BoltStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("kv: bucket is missing")
		}
		return bucket.Put([]byte(key), value)
	})
}

// Delete removes key. Idempotent - no error on absence.
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("kv: bucket is missing")
		}
		return bucket.Delete([]byte(key))
	})
}

// Update atomically transforms the value for key with fn. bbolt allows
// a single writer at a time, so the read, fn, and write cannot
// interleave with another Update or Set.
func (s *BoltStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("kv: bucket is missing")
		}

		current := bucket.Get([]byte(key))
		found := current != nil

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		if next == nil {
			return bucket.Delete([]byte(key))
		}
		return bucket.Put([]byte(key), next)
	})
}

// Keys lists all keys that start with prefix.
func (s *BoltStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}

	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("kv: bucket is missing")
		}

		c := bucket.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Ensure BoltStore implements Store
var _ Store = (*BoltStore)(nil)
