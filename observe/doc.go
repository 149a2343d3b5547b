// Package observe provides telemetry for the request-shaping core:
// structured logging, OpenTelemetry metrics for cache and rate-limiter
// events, and tracing around downstream fetches.
//
// Host processes construct an Observer once and hand its Logger,
// Metrics, and Tracer to the cache facade and rate limiter. All three
// default to no-ops, so telemetry is strictly opt-in.
package observe
