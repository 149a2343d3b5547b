package health

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/reqshape/kv"
)

// StoreCheckerConfig configures the store checker.
type StoreCheckerConfig struct {
	// ProbeKey is the key used for the round-trip probe.
	// Default: "health:probe"
	ProbeKey string

	// SlowThreshold marks the probe degraded when the full round trip
	// takes longer.
	// Default: 250ms
	SlowThreshold time.Duration
}

// StoreChecker verifies the backing key-value store with a
// write-read-delete round trip.
type StoreChecker struct {
	config StoreCheckerConfig
	store  kv.Store
}

// NewStoreChecker creates a checker probing store.
func NewStoreChecker(store kv.Store, config StoreCheckerConfig) *StoreChecker {
	if config.ProbeKey == "" {
		config.ProbeKey = "health:probe"
	}
	if config.SlowThreshold <= 0 {
		config.SlowThreshold = 250 * time.Millisecond
	}

	return &StoreChecker{config: config, store: store}
}

func (c *StoreChecker) Name() string { return "store" }

// Check writes a timestamped probe value, reads it back, and deletes
// it. Any failure or mismatch is unhealthy; a slow round trip is
// degraded.
func (c *StoreChecker) Check(ctx context.Context) Result {
	start := time.Now()
	probe := []byte(start.Format(time.RFC3339Nano))

	if err := c.store.Set(ctx, c.config.ProbeKey, probe); err != nil {
		return Unhealthy("store write failed", err)
	}

	got, err := c.store.Get(ctx, c.config.ProbeKey)
	if err != nil {
		return Unhealthy("store read failed", err)
	}
	if !bytes.Equal(got, probe) {
		return Unhealthy("store returned stale probe value", ErrCheckFailed)
	}

	if err := c.store.Delete(ctx, c.config.ProbeKey); err != nil {
		return Unhealthy("store delete failed", err)
	}

	elapsed := time.Since(start)
	details := map[string]any{
		"round_trip": elapsed.String(),
	}
	if elapsed > c.config.SlowThreshold {
		return Degraded(
			fmt.Sprintf("store round trip slow: %s", elapsed),
		).WithDetails(details)
	}
	return Healthy("store reachable").WithDetails(details)
}
