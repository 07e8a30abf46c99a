// Janus is a retention engine for cloud backups.
//
// It discovers managed EBS snapshots, EC2 images and RDS manual snapshots,
// classifies each as keep or delete against a multi-tier interval retention
// policy, and reconciles a deletion-marker tag so an out-of-band reaper can
// remove what expired.
//
// Usage:
//
//	# One retention pass with the default configuration file
//	janus age
//
//	# Preview decisions without touching any tags
//	janus age --dry-run
//
//	# Run continuously on the configured cron schedule
//	janus run --config /etc/janus/janus.yaml
//
//	# Validate configuration and retention rules
//	janus lint
//
//	# Show version information
//	janus version
package main

func main() {
	Execute()
}
