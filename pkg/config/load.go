package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies JANUS_* environment variable overrides. Overrides always take
// precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides using the
// JANUS_SECTION_FIELD naming convention. List values are comma-separated.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("JANUS_RETENTION_RULES"); val != "" {
		cfg.Retention.Rules = splitList(val)
	}
	if val := os.Getenv("JANUS_RETENTION_TIMEZONE"); val != "" {
		cfg.Retention.Timezone = val
	}
	if val := os.Getenv("JANUS_RETENTION_DRY_RUN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Retention.DryRun = b
		}
	}

	if val := os.Getenv("JANUS_DISCOVERY_REGIONS"); val != "" {
		cfg.Discovery.Regions = splitList(val)
	}

	if val := os.Getenv("JANUS_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("JANUS_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}

	if val := os.Getenv("JANUS_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("JANUS_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}

	if val := os.Getenv("JANUS_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("JANUS_METRICS_LISTEN"); val != "" {
		cfg.Telemetry.Metrics.Listen = val
	}

	if val := os.Getenv("JANUS_SCHEDULE_CRON"); val != "" {
		cfg.Schedule.Cron = val
	}
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
