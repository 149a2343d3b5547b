package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkMemoryStore_Get_Hit measures cache hit performance.
func BenchmarkMemoryStore_Get_Hit(b *testing.B) {
	store := NewMemoryStore(DefaultMaxSize)
	ctx := context.Background()

	_, _ = store.Set(ctx, "key", "value", time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Get(ctx, "key")
	}
}

// BenchmarkMemoryStore_Set_WithEviction measures writes at capacity.
func BenchmarkMemoryStore_Set_WithEviction(b *testing.B) {
	store := NewMemoryStore(64)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Set(ctx, fmt.Sprintf("key-%d", i), i, time.Hour)
	}
}

// BenchmarkKeyer measures key derivation cost.
func BenchmarkKeyer(b *testing.B) {
	keyer := NewDefaultKeyer()
	params := map[string]any{
		"style":  "casual",
		"budget": 150,
		"filters": map[string]any{
			"color": "blue",
			"sizes": []any{"S", "M", "L"},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = keyer.Key(params)
	}
}

// BenchmarkFacade_GetOrFetch_Hit measures the fully cached path.
func BenchmarkFacade_GetOrFetch_Hit(b *testing.B) {
	f := New(Config{})
	defer f.Close()
	ctx := context.Background()

	fetch := func(ctx context.Context) (any, error) { return "v", nil }
	_, _ = f.GetOrFetch(ctx, "key", fetch)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.GetOrFetch(ctx, "key", fetch)
	}
}

// BenchmarkFacade_GetOrFetch_Parallel measures contention on one key.
func BenchmarkFacade_GetOrFetch_Parallel(b *testing.B) {
	f := New(Config{})
	defer f.Close()
	ctx := context.Background()

	fetch := func(ctx context.Context) (any, error) { return "v", nil }
	_, _ = f.GetOrFetch(ctx, "key", fetch)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = f.GetOrFetch(ctx, "key", fetch)
		}
	})
}
