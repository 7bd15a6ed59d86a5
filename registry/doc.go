// Package registry provides the pluggable lookup surfaces consumed by
// stat resolution: subsystem registration ordered by priority, per-dimension
// merge rules, cap layer ordering, and configured fallback clamp ranges.
//
// All registries are safe for concurrent use.
package registry
