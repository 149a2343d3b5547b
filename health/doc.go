// Package health reports the operational state of the caches and the
// store backing them.
//
// A Checker probes one component and returns a Result with a Status of
// Healthy, Degraded, or Unhealthy. StoreChecker verifies the backing
// key-value store with a write-read-delete round trip; CacheChecker
// reads a cache's counters and flags a persistently low hit rate.
//
// Aggregator fans out over registered checkers and folds their results
// into an overall status:
//
//	agg := health.NewAggregator()
//	agg.Register("store", health.NewStoreChecker(store, health.StoreCheckerConfig{}))
//	agg.Register("cache", health.NewCacheChecker(facade, health.CacheCheckerConfig{}))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// The package deliberately has no HTTP surface: hosts mount the
// aggregator behind whatever probe endpoint they already serve.
package health
