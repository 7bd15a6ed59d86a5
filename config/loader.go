package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/chaos-world/actor-core/cache"
	"github.com/chaos-world/actor-core/secret"
	"github.com/chaos-world/actor-core/stat"
)

// EnvConfigFile names the environment variable holding an optional YAML
// config path.
const EnvConfigFile = "ACTOR_CORE_CONFIG"

const envPrefix = "ACTOR_CORE_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) if ACTOR_CORE_CONFIG is set
//  3. env (prefix ACTOR_CORE_)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: ACTOR_CORE_LOG_LEVEL, ACTOR_CORE_CACHE.L1.MAX_ENTRIES, ...
	// Dots separate nesting; underscores stay as-is to match koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.expandSecrets(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandSecrets resolves ${VAR} references in sensitive values so that
// YAML files can reference credentials without embedding them.
func (c *Config) expandSecrets() error {
	password, err := secret.ExpandEnvStrict(c.Cache.L3.Password)
	if err != nil {
		return fmt.Errorf("cache.l3.password: %w", err)
	}
	c.Cache.L3.Password = password

	key, err := secret.ExpandEnvStrict(c.Cache.L3.EncryptionKey)
	if err != nil {
		return fmt.Errorf("cache.l3.encryption_key: %w", err)
	}
	c.Cache.L3.EncryptionKey = key
	return nil
}

// Validate rejects configurations the core could not be constructed from.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("%w: service_name must not be empty", ErrInvalidConfig)
	}

	for name, tier := range map[string]TierConfig{"l1": c.Cache.L1, "l2": c.Cache.L2} {
		if tier.MaxEntries <= 0 {
			return fmt.Errorf("%w: cache.%s.max_entries must be positive", ErrInvalidConfig, name)
		}
		if tier.TTLSeconds <= 0 {
			return fmt.Errorf("%w: cache.%s.ttl_seconds must be positive", ErrInvalidConfig, name)
		}
		if _, err := cache.ParseEvictionPolicy(tier.Policy); err != nil {
			return fmt.Errorf("%w: cache.%s.policy: %v", ErrInvalidConfig, name, err)
		}
	}

	if c.Cache.L3.Enabled {
		if c.Cache.L3.Addr == "" {
			return fmt.Errorf("%w: cache.l3.addr must not be empty", ErrInvalidConfig)
		}
		if c.Cache.L3.CompressionLevel < 0 || c.Cache.L3.CompressionLevel > 9 {
			return fmt.Errorf("%w: cache.l3.compression_level must be 0-9", ErrInvalidConfig)
		}
		if c.Cache.L3.Encrypt && c.Cache.L3.EncryptionKey == "" {
			return fmt.Errorf("%w: cache.l3.encrypt requires encryption_key", ErrInvalidConfig)
		}
	}

	if len(c.Layers.Order) == 0 {
		return fmt.Errorf("%w: layers.order must not be empty", ErrInvalidConfig)
	}
	if _, err := stat.ParseAcrossLayerPolicy(c.Layers.Policy); err != nil {
		return fmt.Errorf("%w: layers.policy: %v", ErrInvalidConfig, err)
	}

	for dimension, rule := range c.MergeRules {
		if dimension == "" {
			return fmt.Errorf("%w: merge rule with empty dimension", ErrInvalidConfig)
		}
		if !rule.UsePipeline {
			if _, err := stat.ParseOperator(rule.Operator); err != nil {
				return fmt.Errorf("%w: merge_rules.%s.operator: %v", ErrInvalidConfig, dimension, err)
			}
		}
		if rule.ClampMin != nil && rule.ClampMax != nil && *rule.ClampMin > *rule.ClampMax {
			return fmt.Errorf("%w: merge_rules.%s clamp min exceeds max", ErrInvalidConfig, dimension)
		}
	}

	for dimension, r := range c.ClampRanges {
		if r.Min > r.Max {
			return fmt.Errorf("%w: clamp_ranges.%s min exceeds max", ErrInvalidConfig, dimension)
		}
	}
	return nil
}
