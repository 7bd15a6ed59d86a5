// Package config defines the resolution core's runtime configuration and
// its loading rules.
//
// Configuration layers, in order of precedence (low to high): built-in
// defaults, an optional YAML file named by ACTOR_CORE_CONFIG, then
// environment variables prefixed ACTOR_CORE_.
package config
