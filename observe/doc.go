// Package observe provides observability primitives for stat resolution.
//
// It is a pure instrumentation library: no resolution, no storage, no I/O
// beyond exporter setup. Consumers wire the observer into the aggregator
// and the cache manager.
package observe
