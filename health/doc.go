// Package health provides liveness and readiness checks for the
// resolution core.
//
// A Checker reports the health of one component: cache tiers, the
// subsystem registry, cap layer configuration, or process memory.
// An Aggregator combines checkers into a composite report:
//
//	agg := health.NewAggregator()
//	agg.Register("cache", health.NewCacheChecker(tiers))
//	agg.Register("subsystems", health.NewSubsystemChecker(plugins))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// HTTP probe handlers are provided for serving the report:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
