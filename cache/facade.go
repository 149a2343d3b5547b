package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/reqshape/observe"
)

// DefaultSweepInterval is the period of the background expiry sweep.
const DefaultSweepInterval = time.Minute

// Config configures a Facade.
type Config struct {
	// Name identifies this cache in logs, metrics, and spans.
	// Default: "default"
	Name string

	// MaxSize caps the entry count of the default in-memory store.
	// Ignored when Store is supplied. Default: DefaultMaxSize
	MaxSize int

	// Policy controls entry lifetime. The zero value uses
	// DefaultPolicy.
	Policy Policy

	// SweepInterval is the period of the expiry sweep started by
	// Start. Default: 1 minute
	SweepInterval time.Duration

	// FetchTimeout bounds each downstream fetch. Zero means no bound
	// beyond the caller's context.
	FetchTimeout time.Duration

	// Store overrides the default in-memory backend.
	Store Store

	// Keyer overrides the default parameter keyer.
	Keyer Keyer

	// Logger, Metrics, and Tracer default to no-ops.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer
}

// Facade composes the key deriver, the store, and single-flight
// coordination. All callers of one cache share a single Facade
// constructed at process start; there is no package-level instance.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Single-flight: at most one downstream fetch runs per key at any
//   instant; concurrent callers for the same uncached key share one
//   fetch and its outcome.
// - Errors: fetch errors reach every waiter unchanged and are never
//   cached.
type Facade struct {
	config  Config
	store   Store
	keyer   Keyer
	policy  Policy
	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer

	sf singleflight.Group

	// inflight tracks callers per key so joins can be counted. The
	// mutex closes the window between the in-flight check and the
	// registration; no suspension happens in between.
	mu       sync.Mutex
	inflight map[string]int

	stats Stats

	stop      chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once
}

// New creates a Facade, applying defaults for any zero config field.
// Call Start to run the background expiry sweep.
func New(config Config) *Facade {
	if config.Name == "" {
		config.Name = "default"
	}
	if config.Policy == (Policy{}) {
		config.Policy = DefaultPolicy()
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}
	if config.Store == nil {
		config.Store = NewMemoryStore(config.MaxSize)
	}
	if config.Keyer == nil {
		config.Keyer = NewDefaultKeyer()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NopMetrics()
	}
	if config.Tracer == nil {
		config.Tracer = observe.NopTracer()
	}

	return &Facade{
		config:   config,
		store:    config.Store,
		keyer:    config.Keyer,
		policy:   config.Policy,
		logger:   config.Logger.WithComponent("cache"),
		metrics:  config.Metrics,
		tracer:   config.Tracer,
		inflight: make(map[string]int),
		stop:     make(chan struct{}),
	}
}

// KeyFor derives a cache key from a parameter map.
func (f *Facade) KeyFor(params map[string]any) string {
	return f.keyer.Key(params)
}

// Get retrieves a cached value. Returns (nil, false) on miss or
// expiry.
func (f *Facade) Get(ctx context.Context, key string) (any, bool) {
	value, ok := f.store.Get(ctx, key)
	f.countLookup(ctx, ok)
	return value, ok
}

// Has reports whether key holds a fresh value. Unlike Get it touches
// neither the access count nor the hit/miss counters.
func (f *Facade) Has(ctx context.Context, key string) bool {
	_, ok := f.store.Peek(ctx, key)
	return ok
}

// Set stores a value. ttlOverride <= 0 uses the policy default; larger
// overrides are clamped to the policy maximum.
func (f *Facade) Set(ctx context.Context, key string, value any, ttlOverride time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	evicted, err := f.store.Set(ctx, key, value, f.policy.EffectiveTTL(ttlOverride))
	if evicted {
		f.stats.evictions.Add(1)
		f.metrics.RecordRemoval(ctx, f.config.Name, "evicted")
	}
	return err
}

// GetOrFetch returns the cached value for key, or runs fetch to
// produce it. Concurrent callers for the same uncached key share one
// fetch: the first registers the flight, the rest await its result.
// The fetch result is cached only on success; errors propagate to
// every waiter and the flight is always cleared, so a failed or timed
// out fetch never poisons the key.
func (f *Facade) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if fetch == nil {
		return nil, ErrNilFetch
	}

	if value, ok := f.store.Get(ctx, key); ok {
		f.countLookup(ctx, true)
		return value, nil
	}
	f.countLookup(ctx, false)

	// Register with the flight before awaiting anything: the check and
	// the bump happen under one lock, so two callers cannot both
	// believe they are first.
	f.mu.Lock()
	joined := f.inflight[key] > 0
	f.inflight[key]++
	f.mu.Unlock()

	if joined {
		f.stats.collapses.Add(1)
		f.metrics.RecordCollapse(ctx, f.config.Name)
	}

	defer func() {
		f.mu.Lock()
		f.inflight[key]--
		if f.inflight[key] <= 0 {
			delete(f.inflight, key)
		}
		f.mu.Unlock()
	}()

	value, err, _ := f.sf.Do(key, func() (any, error) {
		// A fetch that settled between our miss and this flight may
		// have populated the store already.
		if value, ok := f.store.Peek(ctx, key); ok {
			return value, nil
		}
		return f.fetchAndStore(ctx, key, fetch)
	})
	return value, err
}

// fetchAndStore runs the downstream fetch under the configured
// timeout, records its telemetry, and populates the store on success.
func (f *Facade) fetchAndStore(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	fctx := ctx
	if f.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, f.config.FetchTimeout)
		defer cancel()
	}

	fctx, span := f.tracer.StartFetch(fctx, f.config.Name, key)
	start := time.Now()

	value, err := fetch(fctx)

	f.tracer.EndSpan(span, err)
	f.metrics.RecordFetch(ctx, f.config.Name, time.Since(start), err)

	if err != nil {
		// Never cached, never swallowed: every collapsed waiter sees
		// this error.
		return nil, err
	}

	if setErr := f.Set(ctx, key, value, 0); setErr != nil {
		f.logger.Warn(ctx, "failed to cache fetched value",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: setErr.Error()},
		)
	}
	return value, nil
}

// Clear removes the given keys, or every entry when called with none.
// A full clear also resets the counters. Clearing an empty cache is a
// no-op.
func (f *Facade) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		if err := f.store.Clear(ctx); err != nil {
			return err
		}
		f.stats.reset()
		f.metrics.RecordRemoval(ctx, f.config.Name, "cleared")
		return nil
	}

	for _, key := range keys {
		if err := f.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns a snapshot of the counters and current size.
func (f *Facade) Stats(ctx context.Context) Snapshot {
	return f.stats.snapshot(f.store.Len(ctx))
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (f *Facade) HitRate() float64 {
	return f.stats.hitRate()
}

// StampedePreventionRate returns the share of misses that joined an
// existing in-flight fetch instead of starting their own.
func (f *Facade) StampedePreventionRate() float64 {
	return f.stats.collapseRate()
}

// Start launches the background expiry sweep. Start is idempotent;
// the sweep runs until Close.
func (f *Facade) Start() {
	f.startOnce.Do(func() {
		go f.sweepLoop()
	})
}

// Close stops the background sweep. Idempotent.
func (f *Facade) Close() error {
	f.stopOnce.Do(func() {
		close(f.stop)
	})
	return nil
}

func (f *Facade) sweepLoop() {
	ticker := time.NewTicker(f.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			f.sweep(context.Background())
		}
	}
}

// sweep removes expired entries so memory stays bounded even when
// nothing reads the cache.
func (f *Facade) sweep(ctx context.Context) {
	removed := f.store.RemoveExpired(ctx)
	if removed == 0 {
		return
	}

	f.stats.expirations.Add(int64(removed))
	for i := 0; i < removed; i++ {
		f.metrics.RecordRemoval(ctx, f.config.Name, "expired")
	}
	f.logger.Debug(ctx, "swept expired entries",
		observe.Field{Key: "removed", Value: removed},
	)
}

func (f *Facade) countLookup(ctx context.Context, hit bool) {
	if hit {
		f.stats.hits.Add(1)
	} else {
		f.stats.misses.Add(1)
	}
	f.metrics.RecordLookup(ctx, f.config.Name, hit)
}
