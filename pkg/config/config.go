package config

import (
	"cloudkeep/janus/pkg/backup"
)

// Config is the root configuration.
type Config struct {
	Retention RetentionConfig `yaml:"retention"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

// RetentionConfig holds the retention policy.
type RetentionConfig struct {
	// Rules is the ordered list of retention rule strings, e.g. "R7/P1D".
	// Invalid rules are dropped with a warning at run time, not at load
	// time, so one bad rule does not take the whole policy down.
	Rules []string `yaml:"rules"`

	// Timezone selects the calendar for period boundaries: "utc", "local"
	// or an IANA zone name such as "America/St_Johns".
	Timezone string `yaml:"timezone"`

	// DryRun computes and reports decisions without mutating any tags.
	DryRun bool `yaml:"dry_run"`
}

// KeyValuesConfig is one tag key with optional acceptable values.
type KeyValuesConfig struct {
	Key    string   `yaml:"key"`
	Values []string `yaml:"values"`
}

// TagFilterConfig narrows discovery by tags.
type TagFilterConfig struct {
	// AnyKeys: at least one key from every set must be present.
	AnyKeys [][]string `yaml:"any_keys"`

	// NoKeys: none of these keys may be present.
	NoKeys []string `yaml:"no_keys"`

	// KeyValues: every key must be present with one of the listed values.
	KeyValues []KeyValuesConfig `yaml:"key_values"`
}

// Filter converts the configuration into a backup.Filter.
func (c TagFilterConfig) Filter() *backup.Filter {
	f := &backup.Filter{
		AnyKeys: c.AnyKeys,
		NoKeys:  c.NoKeys,
	}
	for _, kv := range c.KeyValues {
		f.KeyValues = append(f.KeyValues, backup.KeyValues{Key: kv.Key, Values: kv.Values})
	}
	return f
}

// DiscoveryConfig selects what to discover.
type DiscoveryConfig struct {
	// Regions lists the regions to scan. An empty single region defers to
	// the provider SDK's own region resolution.
	Regions []string `yaml:"regions"`

	// Filter is an additional tag filter applied on top of the built-in
	// managed-origin requirement.
	Filter TagFilterConfig `yaml:"filter"`
}

// AuditConfig selects the audit storage backend.
type AuditConfig struct {
	// Backend is "sqlite", "memory" or "none".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TelemetryConfig groups observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ScheduleConfig configures the daemon's run cadence.
type ScheduleConfig struct {
	// Cron is a cron expression. The default matches the 10-minute
	// operating cycle backups are created on.
	Cron string `yaml:"cron"`
}
