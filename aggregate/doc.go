// Package aggregate turns per-subsystem stat contributions into resolved
// actor snapshots.
//
// It provides the contribution combination pipeline (ordered bucket
// processing and operator reduction under dimension-specific merge rules)
// and the Aggregator, the top-level resolve entry point that checks the
// snapshot cache, collects subsystem outputs, applies effective caps and
// assembles the final Snapshot.
package aggregate
