// Package caps resolves effective min/max clamp ranges per stat dimension
// from prioritized cap contributions, first within each named layer and
// then across layers under a configurable combination policy.
package caps
