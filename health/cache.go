package health

import (
	"context"
	"fmt"

	"github.com/chaos-world/actor-core/cache"
)

// CacheChecker reports the snapshot cache's own health classification.
type CacheChecker struct {
	tiers *cache.MultiLayer
}

// NewCacheChecker builds a checker over the layered snapshot cache.
func NewCacheChecker(tiers *cache.MultiLayer) *CacheChecker {
	return &CacheChecker{tiers: tiers}
}

func (c *CacheChecker) Name() string { return "cache" }

// Check maps the cache's health report onto checker statuses. A warning
// from any tier degrades this check; an unhealthy tier fails it.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	status := c.tiers.HealthStatus()
	details := map[string]any{
		"l1":               status.L1.String(),
		"l2":               status.L2.String(),
		"l3":               status.L3.String(),
		"efficiency_score": status.EfficiencyScore,
		"hit_ratio":        status.HitRatio,
		"total_operations": status.TotalOperations,
	}

	msg := fmt.Sprintf("cache %s, efficiency %.2f", status.Overall, status.EfficiencyScore)
	switch status.Overall {
	case cache.Unhealthy:
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case cache.Warning:
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(msg).WithDetails(details)
	}
}

var _ Checker = (*CacheChecker)(nil)
