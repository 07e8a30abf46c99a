// Package aws implements cloud discovery strategies and tag writers for
// Amazon Web Services: EBS volume snapshots, EC2 instance images and RDS
// manual DB snapshots.
//
// Only backups created by the managed lifecycle process are considered.
// Discovery requires the managed-origin tag with a per-resource-type value
// set, so hand-made snapshots and images are never classified, let alone
// marked for deletion.
package aws
