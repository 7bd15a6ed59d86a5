package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chaos-world/actor-core/aggregate"
	"github.com/chaos-world/actor-core/cache"
	"github.com/chaos-world/actor-core/caps"
	"github.com/chaos-world/actor-core/config"
	"github.com/chaos-world/actor-core/health"
	"github.com/chaos-world/actor-core/observe"
	"github.com/chaos-world/actor-core/registry"
	"github.com/chaos-world/actor-core/resilience"
	"github.com/chaos-world/actor-core/stat"
)

// Version is stamped into telemetry resources. Overridden at build time
// via -ldflags.
var Version = "dev"

// Service is the assembled resolution core. Fields are exported so
// embedding applications can register subsystems and reach the
// aggregator directly.
type Service struct {
	Config *config.Config

	Subsystems *registry.PluginRegistry
	Combiner   *registry.CombinerRegistry
	Clamps     *registry.ClampRegistry
	Layers     *registry.CapLayerRegistry
	Caps       *caps.Provider

	Cache      *cache.MultiLayer
	Aggregator *aggregate.Aggregator
	Health     *health.Aggregator

	observer observe.Observer
}

// New assembles a service from configuration. The configuration must
// already validate; New re-validates defensively.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	observer, err := newObserver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := observer.Logger()

	subsystems := registry.NewPluginRegistry()

	combiner, err := newCombiner(cfg)
	if err != nil {
		return nil, err
	}
	clamps, err := newClamps(cfg)
	if err != nil {
		return nil, err
	}
	layers, err := newLayers(cfg)
	if err != nil {
		return nil, err
	}

	tiers, err := newCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	capsProvider := caps.NewProvider(layers)

	aggregator, err := aggregate.NewAggregator(
		subsystems, combiner, clamps, capsProvider, tiers, logger, observer.Metrics(),
	)
	if err != nil {
		return nil, err
	}

	checks := health.NewAggregator()
	checks.Register("cache", health.NewCacheChecker(tiers))
	checks.Register("subsystems", health.NewSubsystemChecker(subsystems))
	checks.Register("cap_layers", health.NewLayerChecker(layers))
	checks.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))

	return &Service{
		Config:     cfg,
		Subsystems: subsystems,
		Combiner:   combiner,
		Clamps:     clamps,
		Layers:     layers,
		Caps:       capsProvider,
		Cache:      tiers,
		Aggregator: aggregator,
		Health:     checks,
		observer:   observer,
	}, nil
}

// RegisterSubsystem adds a stat subsystem to the core.
func (s *Service) RegisterSubsystem(subsystem registry.Subsystem) error {
	return s.Subsystems.Register(subsystem)
}

// Resolve computes the actor's snapshot.
func (s *Service) Resolve(ctx context.Context, actor *stat.Actor) (*stat.Snapshot, error) {
	return s.Aggregator.Resolve(ctx, actor)
}

// ResolveBatch resolves each actor independently, skipping failures.
func (s *Service) ResolveBatch(ctx context.Context, actors []*stat.Actor) []*stat.Snapshot {
	return s.Aggregator.ResolveBatch(ctx, actors)
}

// HealthHandler returns an HTTP handler serving the probe endpoints.
func (s *Service) HealthHandler() http.Handler {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, s.Health)
	return mux
}

// Shutdown flushes telemetry. Call once when the service stops.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.observer.Shutdown(ctx)
}

func newObserver(ctx context.Context, cfg *config.Config) (observe.Observer, error) {
	exporter := cfg.MetricsExporter
	return observe.NewObserver(ctx, observe.Config{
		ServiceName: cfg.ServiceName,
		Version:     Version,
		Metrics: observe.MetricsConfig{
			Enabled:  exporter != "" && exporter != "none",
			Exporter: exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.LogLevel,
		},
	})
}

func newCombiner(cfg *config.Config) (*registry.CombinerRegistry, error) {
	combiner := registry.NewCombinerRegistry()
	for dimension, rc := range cfg.MergeRules {
		rule := registry.MergeRule{UsePipeline: rc.UsePipeline}
		if !rc.UsePipeline {
			operator, err := stat.ParseOperator(rc.Operator)
			if err != nil {
				return nil, fmt.Errorf("merge rule %q: %w", dimension, err)
			}
			rule.Operator = operator
		}
		if rc.ClampMin != nil || rc.ClampMax != nil {
			clamp := stat.UnboundedCaps()
			if rc.ClampMin != nil {
				clamp.Min = *rc.ClampMin
			}
			if rc.ClampMax != nil {
				clamp.Max = *rc.ClampMax
			}
			rule.ClampDefault = &clamp
		}
		if err := combiner.SetRule(dimension, rule); err != nil {
			return nil, fmt.Errorf("merge rule %q: %w", dimension, err)
		}
	}
	return combiner, nil
}

func newClamps(cfg *config.Config) (*registry.ClampRegistry, error) {
	clamps := registry.NewClampRegistry()
	for dimension, r := range cfg.ClampRanges {
		if err := clamps.SetRange(dimension, stat.NewCaps(r.Min, r.Max)); err != nil {
			return nil, fmt.Errorf("clamp range %q: %w", dimension, err)
		}
	}
	return clamps, nil
}

func newLayers(cfg *config.Config) (*registry.CapLayerRegistry, error) {
	layers := registry.NewCapLayerRegistry(cfg.Layers.Order...)
	policy, err := stat.ParseAcrossLayerPolicy(cfg.Layers.Policy)
	if err != nil {
		return nil, err
	}
	layers.SetAcrossLayerPolicy(policy)
	return layers, nil
}

func newCache(ctx context.Context, cfg *config.Config, logger observe.Logger) (*cache.MultiLayer, error) {
	l1, err := newMemoryTier(cfg.Cache.L1)
	if err != nil {
		return nil, fmt.Errorf("l1: %w", err)
	}
	l2, err := newMemoryTier(cfg.Cache.L2)
	if err != nil {
		return nil, fmt.Errorf("l2: %w", err)
	}

	var l3 cache.Tier
	if cfg.Cache.L3.Enabled {
		redis, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:             cfg.Cache.L3.Addr,
			Password:         cfg.Cache.L3.Password,
			DB:               cfg.Cache.L3.DB,
			KeyPrefix:        cfg.Cache.L3.KeyPrefix,
			DefaultTTL:       time.Duration(cfg.Cache.L3.TTLSeconds) * time.Second,
			CompressionLevel: cfg.Cache.L3.CompressionLevel,
			Encrypt:          cfg.Cache.L3.Encrypt,
			EncryptionKey:    cfg.Cache.L3.EncryptionKey,
		})
		if err != nil {
			return nil, fmt.Errorf("l3: %w", err)
		}
		l3, err = cache.NewResilientTier(redis, cache.ResilientConfig{
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(ctx, "l3 circuit state changed",
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()},
				)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("l3: %w", err)
		}
	}

	return cache.NewMultiLayer(l1, l2, l3, logger)
}

func newMemoryTier(tc config.TierConfig) (*cache.MemoryCache, error) {
	policy, err := cache.ParseEvictionPolicy(tc.Policy)
	if err != nil {
		return nil, err
	}
	return cache.NewMemoryCache(cache.MemoryConfig{
		MaxEntries: tc.MaxEntries,
		DefaultTTL: time.Duration(tc.TTLSeconds) * time.Second,
		Policy:     policy,
	})
}
