package cache

import "sync/atomic"

// Stats holds process-wide counters for one cache instance. Counters
// only reset on a full Clear.
type Stats struct {
	hits        atomic.Int64
	misses      atomic.Int64
	collapses   atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// Snapshot is a point-in-time copy of the counters plus the current
// entry count.
type Snapshot struct {
	Hits        int64
	Misses      int64
	Collapses   int64
	Evictions   int64
	Expirations int64
	Size        int
}

func (s *Stats) reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.collapses.Store(0)
	s.evictions.Store(0)
	s.expirations.Store(0)
}

func (s *Stats) snapshot(size int) Snapshot {
	return Snapshot{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Collapses:   s.collapses.Load(),
		Evictions:   s.evictions.Load(),
		Expirations: s.expirations.Load(),
		Size:        size,
	}
}

// hitRate returns hits / (hits + misses), or 0 with no lookups.
func (s *Stats) hitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// collapseRate returns collapses / misses, or 0 with no misses. Every
// miss either starts a fetch or joins one, so this is the share of
// misses whose downstream call was saved by single-flight.
func (s *Stats) collapseRate() float64 {
	misses := s.misses.Load()
	if misses == 0 {
		return 0
	}
	return float64(s.collapses.Load()) / float64(misses)
}
