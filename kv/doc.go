// Package kv provides the transactional key-value store boundary used
// by the rate limiter and the persistent cache backend.
//
// It provides a Store interface with bbolt and in-memory
// implementations. Update executes a read-modify-write as a single
// atomic unit, which is what makes check-then-act counters safe.
package kv
