package config

import (
	"fmt"
	"time"
)

// Validate checks a configuration for structural problems. Retention rule
// strings are deliberately not decoded here; invalid rules are dropped per
// rule at run time.
func Validate(cfg *Config) error {
	if len(cfg.Retention.Rules) == 0 {
		return fmt.Errorf("retention.rules: at least one rule is required")
	}

	switch cfg.Retention.Timezone {
	case "utc", "local":
	default:
		if _, err := time.LoadLocation(cfg.Retention.Timezone); err != nil {
			return fmt.Errorf("retention.timezone: %w", err)
		}
	}

	switch cfg.Audit.Backend {
	case "sqlite", "memory", "none":
	default:
		return fmt.Errorf("audit.backend: %q is not one of sqlite, memory, none", cfg.Audit.Backend)
	}
	if cfg.Audit.Backend == "sqlite" && cfg.Audit.SQLitePath == "" {
		return fmt.Errorf("audit.sqlite_path: required for the sqlite backend")
	}

	for i, set := range cfg.Discovery.Filter.AnyKeys {
		if len(set) == 0 {
			return fmt.Errorf("discovery.filter.any_keys[%d]: empty key set", i)
		}
	}
	for i, kv := range cfg.Discovery.Filter.KeyValues {
		if kv.Key == "" {
			return fmt.Errorf("discovery.filter.key_values[%d]: key is required", i)
		}
	}

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Listen == "" {
		return fmt.Errorf("telemetry.metrics.listen: required when metrics are enabled")
	}

	if cfg.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron: required")
	}

	return nil
}

// Location resolves the configured timezone.
func (c RetentionConfig) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "utc":
		return time.UTC, nil
	case "local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Timezone)
	}
}
