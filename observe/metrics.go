package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records resolution and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordResolution records one actor resolution with duration and
	// error status.
	RecordResolution(ctx context.Context, actorID string, duration time.Duration, err error)

	// RecordCacheHit records a snapshot cache hit.
	RecordCacheHit(ctx context.Context)

	// RecordCacheMiss records a snapshot cache miss.
	RecordCacheMiss(ctx context.Context)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"actor.resolve.total",
		metric.WithDescription("Total number of actor resolutions"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"actor.resolve.errors",
		metric.WithDescription("Total number of failed actor resolutions"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"actor.resolve.duration_ms",
		metric.WithDescription("Actor resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"actor.cache.hits",
		metric.WithDescription("Snapshot cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"actor.cache.misses",
		metric.WithDescription("Snapshot cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}, nil
}

// RecordResolution records metrics for one actor resolution.
func (m *metricsImpl) RecordResolution(ctx context.Context, actorID string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("actor.id", actorID))

	// Always increment total counter
	m.totalCount.Add(ctx, 1, opt)

	// Increment error counter on failure
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000.0, opt)
}

func (m *metricsImpl) RecordCacheHit(ctx context.Context) {
	m.cacheHits.Add(ctx, 1)
}

func (m *metricsImpl) RecordCacheMiss(ctx context.Context) {
	m.cacheMisses.Add(ctx, 1)
}

// NopMetrics returns a Metrics recorder that does nothing.
func NopMetrics() Metrics {
	return &noopMetrics{}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordResolution(context.Context, string, time.Duration, error) {}
func (m *noopMetrics) RecordCacheHit(context.Context)                                 {}
func (m *noopMetrics) RecordCacheMiss(context.Context)                                {}
