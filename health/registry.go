package health

import (
	"context"
	"fmt"

	"github.com/chaos-world/actor-core/registry"
)

// SubsystemChecker reports whether any stat subsystems are registered.
// A core with no subsystems resolves every actor to an empty snapshot,
// which is almost always a deployment fault.
type SubsystemChecker struct {
	plugins *registry.PluginRegistry
}

// NewSubsystemChecker builds a checker over the plugin registry.
func NewSubsystemChecker(plugins *registry.PluginRegistry) *SubsystemChecker {
	return &SubsystemChecker{plugins: plugins}
}

func (c *SubsystemChecker) Name() string { return "subsystems" }

func (c *SubsystemChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	count := c.plugins.Count()
	details := map[string]any{"registered": count}
	if count == 0 {
		return Degraded("no subsystems registered").WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d subsystems registered", count)).WithDetails(details)
}

// LayerChecker reports whether cap layer resolution is configured.
type LayerChecker struct {
	layers *registry.CapLayerRegistry
}

// NewLayerChecker builds a checker over the cap layer registry.
func NewLayerChecker(layers *registry.CapLayerRegistry) *LayerChecker {
	return &LayerChecker{layers: layers}
}

func (c *LayerChecker) Name() string { return "cap_layers" }

func (c *LayerChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if err := c.layers.Validate(); err != nil {
		return Unhealthy("cap layer registry invalid", err)
	}
	order := c.layers.LayerOrder()
	return Healthy(fmt.Sprintf("%d cap layers configured", len(order))).WithDetails(map[string]any{
		"order":  order,
		"policy": c.layers.AcrossLayerPolicy().String(),
	})
}

var (
	_ Checker = (*SubsystemChecker)(nil)
	_ Checker = (*LayerChecker)(nil)
)
