package aggregate

import (
	"sort"

	"github.com/chaos-world/actor-core/stat"
)

// sortContributions orders contributions by priority descending; ties
// fall back to system id ascending, then value ascending. The order is
// fully deterministic, so results never depend on collection order or
// map iteration.
func sortContributions(contribs []stat.Contribution) {
	sort.SliceStable(contribs, func(i, j int) bool {
		a, b := contribs[i], contribs[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.System != b.System {
			return a.System < b.System
		}
		return a.Value < b.Value
	})
}

// processPipeline combines one dimension's contributions in strict bucket
// order: Flat sums, Mult multiplies, PostAdd sums, Override replaces the
// running value with the highest-priority override. The clamp, if any,
// applies once at the end.
func processPipeline(contribs []stat.Contribution, initial float64, clamp *stat.Caps) float64 {
	byBucket := make(map[stat.Bucket][]stat.Contribution)
	for _, c := range contribs {
		byBucket[c.Bucket] = append(byBucket[c.Bucket], c)
	}

	value := initial
	for _, bucket := range stat.BucketOrder() {
		group, ok := byBucket[bucket]
		if !ok {
			continue
		}
		sortContributions(group)

		switch bucket {
		case stat.BucketFlat, stat.BucketPostAdd:
			for _, c := range group {
				value += c.Value
			}
		case stat.BucketMult:
			for _, c := range group {
				value *= c.Value
			}
		case stat.BucketOverride:
			// Highest priority wins.
			value = group[0].Value
		}
	}

	if clamp != nil {
		value = clamp.Clamp(value)
	}
	return value
}

// reduceOperator combines one dimension's contributions with a single
// operator instead of the bucket pipeline. Callers guarantee contribs is
// non-empty.
func reduceOperator(op stat.Operator, contribs []stat.Contribution, clamp *stat.Caps) float64 {
	sortContributions(contribs)

	value := contribs[0].Value
	switch op {
	case stat.OperatorSum:
		for _, c := range contribs[1:] {
			value += c.Value
		}
	case stat.OperatorMax:
		for _, c := range contribs[1:] {
			if c.Value > value {
				value = c.Value
			}
		}
	case stat.OperatorMin, stat.OperatorIntersect:
		// Intersect keeps the most restrictive value.
		for _, c := range contribs[1:] {
			if c.Value < value {
				value = c.Value
			}
		}
	case stat.OperatorAverage:
		sum := value
		for _, c := range contribs[1:] {
			sum += c.Value
		}
		value = sum / float64(len(contribs))
	case stat.OperatorMultiply:
		for _, c := range contribs[1:] {
			value *= c.Value
		}
	}

	if clamp != nil {
		value = clamp.Clamp(value)
	}
	return value
}
