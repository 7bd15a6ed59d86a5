package aggregate

import "time"

// Metrics holds the aggregator's rolling counters. Counters accumulate
// monotonically and reset only with the owning aggregator.
type Metrics struct {
	TotalResolutions  uint64        `json:"total_resolutions"`
	CacheHits         uint64        `json:"cache_hits"`
	CacheMisses       uint64        `json:"cache_misses"`
	AvgResolutionTime time.Duration `json:"avg_resolution_time"`
	MaxResolutionTime time.Duration `json:"max_resolution_time"`
	ErrorCount        uint64        `json:"error_count"`
	ActiveSubsystems  int           `json:"active_subsystems"`
}
