// Package service assembles the resolution core from configuration:
// telemetry, registries, cache tiers, cap provider, and the aggregator,
// plus health probes over the assembled parts.
package service
