package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with fetch-specific span
// management. The cache facade starts a span around every downstream
// fetch so stampedes and slow upstreams show up in traces.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartFetch starts a span for a downstream fetch on behalf of the
	// named cache and key.
	StartFetch(ctx context.Context, cache, key string) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartFetch starts a new span with cache metadata as attributes.
func (t *tracerImpl) StartFetch(ctx context.Context, cache, key string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "cache.fetch."+cache,
		trace.WithAttributes(
			attribute.String("cache.name", cache),
			attribute.String("cache.key", key),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// nopTracer is a tracer that produces no-op spans.
type nopTracer struct {
	tracer trace.Tracer
}

// NopTracer returns a Tracer that discards all spans.
func NopTracer() Tracer {
	return &nopTracer{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *nopTracer) StartFetch(ctx context.Context, cache, key string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "noop")
}

func (t *nopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
