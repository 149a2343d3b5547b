package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/reqshape/kv"
)

// failingKV simulates an unreachable backend.
type failingKV struct{}

var errBackendDown = errors.New("backend unreachable")

func (failingKV) Get(context.Context, string) ([]byte, error)         { return nil, errBackendDown }
func (failingKV) Set(context.Context, string, []byte) error           { return errBackendDown }
func (failingKV) Delete(context.Context, string) error                { return errBackendDown }
func (failingKV) Update(context.Context, string, kv.UpdateFunc) error { return errBackendDown }
func (failingKV) Keys(context.Context, string) ([]string, error)      { return nil, errBackendDown }

func TestKVStore_RoundTrip(t *testing.T) {
	store := NewKVStore(kv.NewMemoryStore(), "recs", 10)
	ctx := context.Background()

	if _, err := store.Set(ctx, "k", map[string]any{"text": "hello", "n": float64(3)}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get(ctx, "k")
	if !ok {
		t.Fatal("Get after Set should return ok=true")
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("value decoded as %T, want map[string]any", got)
	}
	if m["text"] != "hello" || m["n"] != float64(3) {
		t.Errorf("value round-trip mismatch: %v", m)
	}
}

func TestKVStore_GetBumpsAccessCount(t *testing.T) {
	backend := kv.NewMemoryStore()
	store := NewKVStore(backend, "recs", 2)
	ctx := context.Background()

	if _, err := store.Set(ctx, "hot", "a", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := store.Set(ctx, "cold", "b", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	store.Get(ctx, "hot")
	store.Get(ctx, "hot")

	if _, err := store.Set(ctx, "new", "c", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok := store.Peek(ctx, "hot"); !ok {
		t.Error("frequently read entry should survive eviction")
	}
	if _, ok := store.Peek(ctx, "cold"); ok {
		t.Error("never-read entry should be evicted first")
	}
}

func TestKVStore_TTLExpiry(t *testing.T) {
	store := NewKVStore(kv.NewMemoryStore(), "recs", 10)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	if _, err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("expired entry should be absent")
	}
	if _, ok := store.Peek(ctx, "k"); ok {
		t.Error("expired entry should be absent via Peek")
	}
}

func TestKVStore_EvictionBound(t *testing.T) {
	const maxSize = 4
	store := NewKVStore(kv.NewMemoryStore(), "recs", maxSize)
	ctx := context.Background()

	for i := 0; i < maxSize+2; i++ {
		if _, err := store.Set(ctx, fmt.Sprintf("k%d", i), i, time.Hour); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if n := store.Len(ctx); n != maxSize {
		t.Errorf("store holds %d entries, want %d", n, maxSize)
	}
}

func TestKVStore_BackendFailureDegradesToMiss(t *testing.T) {
	store := NewKVStore(failingKV{}, "recs", 10)
	ctx := context.Background()

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get against a dead backend should miss, not error")
	}
	if _, ok := store.Peek(ctx, "k"); ok {
		t.Error("Peek against a dead backend should miss")
	}
	if store.Len(ctx) != 0 {
		t.Error("Len against a dead backend should report 0")
	}
	if removed := store.RemoveExpired(ctx); removed != 0 {
		t.Errorf("RemoveExpired against a dead backend removed %d", removed)
	}

	// Set surfaces the error so the facade can log it.
	if _, err := store.Set(ctx, "k", "v", time.Minute); err == nil {
		t.Error("Set against a dead backend should error")
	}
}

func TestKVStore_PrefixIsolation(t *testing.T) {
	backend := kv.NewMemoryStore()
	recs := NewKVStore(backend, "recs", 10)
	imgs := NewKVStore(backend, "imgs", 10)
	ctx := context.Background()

	if _, err := recs.Set(ctx, "k", "rec", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := imgs.Set(ctx, "k", "img", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if got, _ := recs.Get(ctx, "k"); got != "rec" {
		t.Errorf("recs cache returned %v, want rec", got)
	}
	if got, _ := imgs.Get(ctx, "k"); got != "img" {
		t.Errorf("imgs cache returned %v, want img", got)
	}

	if err := recs.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := imgs.Get(ctx, "k"); !ok {
		t.Error("clearing one cache should not touch another's prefix")
	}
}

func TestKVStore_RemoveExpired(t *testing.T) {
	store := NewKVStore(kv.NewMemoryStore(), "recs", 10)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	if _, err := store.Set(ctx, "short", 1, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := store.Set(ctx, "long", 2, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	store.now = func() time.Time { return base.Add(5 * time.Minute) }

	if removed := store.RemoveExpired(ctx); removed != 1 {
		t.Errorf("RemoveExpired removed %d, want 1", removed)
	}
	if _, ok := store.Peek(ctx, "long"); !ok {
		t.Error("live entry should survive the sweep")
	}
}
