package config

// Config holds the full runtime configuration of the resolution core.
type Config struct {
	// ServiceName identifies this deployment in telemetry.
	ServiceName string `koanf:"service_name"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsExporter selects the metrics backend: prometheus, stdout, none.
	MetricsExporter string `koanf:"metrics_exporter"`

	// Cache configures the snapshot cache tiers.
	Cache CacheConfig `koanf:"cache"`

	// Layers configures cap layer resolution.
	Layers LayersConfig `koanf:"layers"`

	// MergeRules maps stat dimensions to their combination rules.
	MergeRules map[string]MergeRuleConfig `koanf:"merge_rules"`

	// ClampRanges maps stat dimensions to fallback clamp bounds, applied
	// only when neither runtime caps nor a merge rule constrain them.
	ClampRanges map[string]RangeConfig `koanf:"clamp_ranges"`
}

// CacheConfig configures the three cache tiers. L3 is optional.
type CacheConfig struct {
	L1 TierConfig  `koanf:"l1"`
	L2 TierConfig  `koanf:"l2"`
	L3 RedisConfig `koanf:"l3"`
}

// TierConfig configures one in-memory tier.
type TierConfig struct {
	MaxEntries int    `koanf:"max_entries"`
	TTLSeconds int64  `koanf:"ttl_seconds"`
	Policy     string `koanf:"policy"` // lru, lfu, fifo, random
}

// RedisConfig configures the optional Redis-backed L3 tier.
type RedisConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Addr             string `koanf:"addr"`
	Password         string `koanf:"password"`
	DB               int    `koanf:"db"`
	KeyPrefix        string `koanf:"key_prefix"`
	TTLSeconds       int64  `koanf:"ttl_seconds"`
	CompressionLevel int    `koanf:"compression_level"`
	Encrypt          bool   `koanf:"encrypt"`
	EncryptionKey    string `koanf:"encryption_key"`
}

// LayersConfig configures cap layer order and the cross-layer policy.
type LayersConfig struct {
	Order  []string `koanf:"order"`
	Policy string   `koanf:"policy"` // intersect, union, prioritized_override
}

// MergeRuleConfig configures how one dimension's contributions combine.
type MergeRuleConfig struct {
	UsePipeline bool     `koanf:"use_pipeline"`
	Operator    string   `koanf:"operator"` // sum, max, min, average, multiply, intersect
	ClampMin    *float64 `koanf:"clamp_min"`
	ClampMax    *float64 `koanf:"clamp_max"`
}

// RangeConfig is a min/max pair for a fallback clamp range.
type RangeConfig struct {
	Min float64 `koanf:"min"`
	Max float64 `koanf:"max"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServiceName:     "actor-core",
		LogLevel:        "info",
		MetricsExporter: "none",
		Cache: CacheConfig{
			L1: TierConfig{MaxEntries: 2_000, TTLSeconds: 300, Policy: "lru"},
			L2: TierConfig{MaxEntries: 20_000, TTLSeconds: 1_800, Policy: "lru"},
			L3: RedisConfig{
				Addr:       "localhost:6379",
				KeyPrefix:  "actor-core:",
				TTLSeconds: 7_200,
			},
		},
		Layers: LayersConfig{
			Order:  []string{"realm", "world", "event", "guild", "total"},
			Policy: "intersect",
		},
		MergeRules:  map[string]MergeRuleConfig{},
		ClampRanges: map[string]RangeConfig{},
	}
}
