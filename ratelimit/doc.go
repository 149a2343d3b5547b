// Package ratelimit provides a fixed-window request limiter backed by
// a transactional key-value store.
//
// Counters live in the store, so every process sharing it enforces one
// limit; the decision and the increment run inside a single store
// transaction, which closes the check-then-act race two concurrent
// requests would otherwise exploit. When the store is unreachable the
// limiter fails open: legitimate traffic is never blocked by an
// infrastructure outage.
package ratelimit
