// Package cloud defines the discovery and tag-mutation surface between the
// retention engine and cloud providers.
//
// Each backup-bearing resource type (EBS snapshots, EC2 images, RDS manual
// snapshots) is handled by one Strategy, a typed record registered per
// region at startup. The Registry aggregates strategies for discovery and
// routes marker mutations to the right service's TagWriter, so nothing in
// the engine ever consults a global service table.
package cloud
