package health

import (
	"context"
	"testing"

	"github.com/jonwraymond/reqshape/cache"
)

type fixedStats struct {
	snap cache.Snapshot
}

func (f fixedStats) Stats(context.Context) cache.Snapshot { return f.snap }

func TestCacheCheckerHealthy(t *testing.T) {
	checker := NewCacheChecker(fixedStats{cache.Snapshot{
		Hits:   80,
		Misses: 20,
		Size:   10,
	}}, CacheCheckerConfig{MinHitRate: 0.5})

	res := checker.Check(context.Background())
	if res.Status != StatusHealthy {
		t.Fatalf("status = %v (%s), want healthy", res.Status, res.Message)
	}
	if res.Details["hit_rate"] != 0.8 {
		t.Errorf("hit_rate detail = %v, want 0.8", res.Details["hit_rate"])
	}
	if res.Details["size"] != 10 {
		t.Errorf("size detail = %v, want 10", res.Details["size"])
	}
}

func TestCacheCheckerLowHitRate(t *testing.T) {
	checker := NewCacheChecker(fixedStats{cache.Snapshot{
		Hits:   10,
		Misses: 90,
	}}, CacheCheckerConfig{MinHitRate: 0.5})

	res := checker.Check(context.Background())
	if res.Status != StatusDegraded {
		t.Errorf("status = %v, want degraded for low hit rate", res.Status)
	}
}

func TestCacheCheckerColdCacheNotFlagged(t *testing.T) {
	// Under MinLookups the hit rate is not judged yet.
	checker := NewCacheChecker(fixedStats{cache.Snapshot{
		Hits:   1,
		Misses: 9,
	}}, CacheCheckerConfig{MinHitRate: 0.5, MinLookups: 100})

	res := checker.Check(context.Background())
	if res.Status != StatusHealthy {
		t.Errorf("status = %v, want healthy while warming up", res.Status)
	}
}

func TestCacheCheckerDisabledThreshold(t *testing.T) {
	checker := NewCacheChecker(fixedStats{cache.Snapshot{
		Misses: 1000,
	}}, CacheCheckerConfig{})

	res := checker.Check(context.Background())
	if res.Status != StatusHealthy {
		t.Errorf("status = %v, want healthy with no threshold", res.Status)
	}
}

func TestCacheCheckerName(t *testing.T) {
	if got := NewCacheChecker(fixedStats{}, CacheCheckerConfig{}).Name(); got != "cache" {
		t.Errorf("default name = %q, want %q", got, "cache")
	}
	if got := NewCacheChecker(fixedStats{}, CacheCheckerConfig{Name: "responses"}).Name(); got != "responses" {
		t.Errorf("name = %q, want %q", got, "responses")
	}
}

func TestCacheCheckerWithFacade(t *testing.T) {
	ctx := context.Background()
	f := cache.New(cache.Config{Name: "probe"})

	if _, err := f.GetOrFetch(ctx, "k", func(context.Context) (any, error) {
		return "v", nil
	}); err != nil {
		t.Fatal(err)
	}

	checker := NewCacheChecker(f, CacheCheckerConfig{})
	res := checker.Check(ctx)
	if res.Status != StatusHealthy {
		t.Fatalf("status = %v, want healthy", res.Status)
	}
	if res.Details["size"] != 1 {
		t.Errorf("size detail = %v, want 1", res.Details["size"])
	}
}
