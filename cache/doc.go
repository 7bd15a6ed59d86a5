// Package cache provides the multi-layer snapshot cache.
//
// It provides independent cache tiers (in-memory L1/L2, Redis-backed L3)
// with per-tier TTLs and eviction policies, composed behind a MultiLayer
// manager that reads through L1→L2→L3 with upward promotion, writes
// through to every tier best-effort, and reports aggregate statistics
// and a health classification.
package cache
