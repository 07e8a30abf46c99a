package config

// ApplyDefaults fills in default values for unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Retention.Timezone == "" {
		cfg.Retention.Timezone = "utc"
	}
	if len(cfg.Discovery.Regions) == 0 {
		cfg.Discovery.Regions = []string{""}
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "sqlite"
	}
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = "data/audit.db"
	}
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Listen == "" {
		cfg.Telemetry.Metrics.Listen = ":9090"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "janus"
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "*/10 * * * *"
	}
}
