package cache

import "fmt"

// SnapshotKey builds the canonical cache key for an actor's resolved
// snapshot. The key is versioned so a stale snapshot can never be served
// for a mutated actor.
func SnapshotKey(actorID string, version int64) string {
	return fmt.Sprintf("actor:%s:%d", actorID, version)
}

// LegacySnapshotKeys returns the historical key formats that earlier
// deployments wrote under. Invalidation sweeps these alongside the
// canonical key so stale entries cannot survive an explicit invalidate.
func LegacySnapshotKeys(actorID string, version int64) []string {
	return []string{
		fmt.Sprintf("%s:%d", actorID, version),
		fmt.Sprintf("actor_snapshot:%s", actorID),
	}
}
