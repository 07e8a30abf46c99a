// Package backup defines the core data model for cloud-created backups.
//
// A backup is a point-in-time image or snapshot of a parent resource (an EC2
// instance, an EBS volume, or an RDS database). Each backup is identified by
// the tuple (region, service, parent resource ID, backup resource ID) and
// carries the full tag map resolved at discovery time.
//
// The package also provides tag-based selection rules (Filter) used to narrow
// discovery to the backups a retention run should consider, and the deletion
// marker constants shared by the reconciler and the cloud collaborators.
//
// Records are immutable snapshots of discovery output: the retention engine
// never modifies a Record's identity or creation time.
package backup
