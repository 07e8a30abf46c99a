// Package health provides liveness and readiness endpoints for the
// retention daemon.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status is the result of one component check.
type Status struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// CheckFunc probes one component.
type CheckFunc func() Status

// Checker aggregates component checks and serves them over HTTP.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	started time.Time
	version string
}

// NewChecker creates a checker. Version is reported in the liveness
// response.
func NewChecker(version string) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		started: time.Now(),
		version: version,
	}
}

// Register adds a named component check. Re-registering a name replaces the
// previous check.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// LivenessHandler reports that the process is up. It never fails while the
// process can serve HTTP.
func (c *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"version": c.version,
			"uptime":  time.Since(c.started).String(),
		})
	})
}

// ReadinessHandler runs every registered check and reports 503 when any
// component is unhealthy.
func (c *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		c.mu.RLock()
		results := make(map[string]Status, len(c.checks))
		healthy := true
		for name, check := range c.checks {
			status := check()
			results[name] = status
			if !status.Healthy {
				healthy = false
			}
		}
		c.mu.RUnlock()

		code := http.StatusOK
		overall := "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			overall = "degraded"
		}
		writeJSON(w, code, map[string]any{
			"status": overall,
			"checks": results,
		})
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
