package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache and rate-limiter events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; never block the caller's hot path.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records a cache lookup and whether it hit.
	RecordLookup(ctx context.Context, cache string, hit bool)

	// RecordFetch records one actual downstream fetch with its
	// duration and error outcome. Collapsed callers are not fetches;
	// they go through RecordCollapse.
	RecordFetch(ctx context.Context, cache string, duration time.Duration, err error)

	// RecordCollapse records a caller that joined an existing
	// in-flight fetch instead of starting its own.
	RecordCollapse(ctx context.Context, cache string)

	// RecordRemoval records an entry leaving the cache. reason is one
	// of "evicted", "expired", or "cleared".
	RecordRemoval(ctx context.Context, cache string, reason string)

	// RecordDecision records a rate-limit decision. outcome is one of
	// "allowed", "rejected", or "fail-open".
	RecordDecision(ctx context.Context, limiter string, outcome string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	lookups      metric.Int64Counter
	fetchTotal   metric.Int64Counter
	fetchErrors  metric.Int64Counter
	collapsed    metric.Int64Counter
	removals     metric.Int64Counter
	decisions    metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Total number of cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	fetchTotal, err := meter.Int64Counter(
		"cache.fetch.total",
		metric.WithDescription("Total number of downstream fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"cache.fetch.errors",
		metric.WithDescription("Total number of failed downstream fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	collapsed, err := meter.Int64Counter(
		"cache.fetch.collapsed",
		metric.WithDescription("Callers that joined an existing in-flight fetch"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	removals, err := meter.Int64Counter(
		"cache.removals",
		metric.WithDescription("Entries removed from the cache"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	decisions, err := meter.Int64Counter(
		"ratelimit.decisions",
		metric.WithDescription("Rate-limit check outcomes"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Downstream fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookups:      lookups,
		fetchTotal:   fetchTotal,
		fetchErrors:  fetchErrors,
		collapsed:    collapsed,
		removals:     removals,
		decisions:    decisions,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordLookup(ctx context.Context, cache string, hit bool) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.name", cache),
		attribute.Bool("cache.hit", hit),
	))
}

func (m *metricsImpl) RecordFetch(ctx context.Context, cache string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("cache.name", cache))

	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCollapse(ctx context.Context, cache string) {
	m.collapsed.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.name", cache)))
}

func (m *metricsImpl) RecordRemoval(ctx context.Context, cache string, reason string) {
	m.removals.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.name", cache),
		attribute.String("cache.removal_reason", reason),
	))
}

func (m *metricsImpl) RecordDecision(ctx context.Context, limiter string, outcome string) {
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ratelimit.name", limiter),
		attribute.String("ratelimit.outcome", outcome),
	))
}

// nopMetrics is a metrics implementation that does nothing.
type nopMetrics struct{}

func (nopMetrics) RecordLookup(context.Context, string, bool)                {}
func (nopMetrics) RecordFetch(context.Context, string, time.Duration, error) {}
func (nopMetrics) RecordCollapse(context.Context, string)                    {}
func (nopMetrics) RecordRemoval(context.Context, string, string)             {}
func (nopMetrics) RecordDecision(context.Context, string, string)            {}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics {
	return nopMetrics{}
}
