// Package stat defines the data model for actor stat resolution.
//
// It provides the Actor identity, the Contribution and CapContribution
// inputs produced by subsystems, the Caps clamp range, and the Snapshot
// result type, along with the enums that drive combination semantics.
package stat
