// Package cache provides the request-shaping cache: a bounded TTL
// store, deterministic key derivation from parameter maps, and a
// facade whose GetOrFetch collapses concurrent fetches for the same
// key onto a single downstream call.
//
// Two Store backends are provided: MemoryStore for purely in-process
// caching, and KVStore for caches persisted through the kv package's
// transactional store.
package cache
