// Package config defines the YAML configuration for janus and its loader.
//
// Configuration is loaded from a file, filled in with defaults, overridden
// by JANUS_* environment variables and validated. Environment variables
// always take precedence over file values.
package config
