// Package metrics exposes Prometheus metrics for retention runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled controls whether the metrics endpoint is served.
	Enabled bool `yaml:"enabled"`

	// Listen is the metrics listener address.
	Listen string `yaml:"listen"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   false,
		Listen:    ":9090",
		Path:      "/metrics",
		Namespace: "janus",
	}
}

// Collector registers and records all retention metrics.
type Collector struct {
	registry *prometheus.Registry

	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	rulesRejected     prometheus.Counter
	backupsDiscovered *prometheus.CounterVec
	discoveryFailures *prometheus.CounterVec
	decisions         *prometheus.CounterVec
	mutations         *prometheus.CounterVec
}

// NewCollector creates a metrics collector. If registry is nil a fresh
// registry is used.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "janus"
	}

	c := &Collector{
		registry: registry,

		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Retention runs by final status.",
		}, []string{"status"}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a retention run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		rulesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_rejected_total",
			Help:      "Retention rule strings dropped at decode time.",
		}),

		backupsDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_discovered_total",
			Help:      "Backups returned by discovery.",
		}, []string{"region", "service"}),

		discoveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_failures_total",
			Help:      "Discovery strategies that failed.",
		}, []string{"region", "service", "resource"}),

		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Backup classifications by outcome and reason.",
		}, []string{"outcome", "reason"}),

		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marker_mutations_total",
			Help:      "Deletion-marker tag mutations by operation and result.",
		}, []string{"op", "result"}),
	}

	registry.MustRegister(
		c.runs,
		c.runDuration,
		c.rulesRejected,
		c.backupsDiscovered,
		c.discoveryFailures,
		c.decisions,
		c.mutations,
	)

	return c
}

// RecordRun records a finished run's status and duration.
func (c *Collector) RecordRun(status string, duration time.Duration) {
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.Observe(duration.Seconds())
}

// RecordRejectedRule counts a rule string dropped at decode time.
func (c *Collector) RecordRejectedRule() {
	c.rulesRejected.Inc()
}

// RecordDiscovered counts discovered backups.
func (c *Collector) RecordDiscovered(region, service string, count int) {
	c.backupsDiscovered.WithLabelValues(region, service).Add(float64(count))
}

// RecordDiscoveryFailure counts a failed discovery strategy.
func (c *Collector) RecordDiscoveryFailure(region, service, resource string) {
	c.discoveryFailures.WithLabelValues(region, service, resource).Inc()
}

// RecordDecision counts one backup classification.
func (c *Collector) RecordDecision(outcome, reason string) {
	c.decisions.WithLabelValues(outcome, reason).Inc()
}

// RecordMutation counts one marker mutation attempt.
func (c *Collector) RecordMutation(op string, failed bool) {
	result := "success"
	if failed {
		result = "failure"
	}
	c.mutations.WithLabelValues(op, result).Inc()
}
