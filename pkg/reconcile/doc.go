// Package reconcile turns retention decisions into deletion-marker tag
// mutations. It diffs each backup's decided outcome against the marker
// already present on the backup and emits only the writes actually needed,
// so a rerun over unchanged inputs performs no mutations at all.
package reconcile
