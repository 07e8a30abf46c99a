// Package ager orchestrates one retention run end to end: decode the rule
// policy, discover backups, build and partition the timeline, reconcile
// deletion markers, and record the audit trail.
package ager
