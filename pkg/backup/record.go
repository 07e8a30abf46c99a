package backup

import (
	"fmt"
	"time"
)

// Service identifies the cloud service a backup belongs to.
type Service string

const (
	// ServiceEC2 covers EBS volume snapshots and EC2 instance images.
	ServiceEC2 Service = "ec2"
	// ServiceRDS covers RDS manual database snapshots.
	ServiceRDS Service = "rds"
)

// MarkerTag is the tag key applied to a backup to signal that it is eligible
// for out-of-band deletion. The value is always empty; only presence matters.
const MarkerTag = "managed-delete"

// OriginTag is the tag key recording which lifecycle operation created a
// backup. Discovery only considers backups carrying one of the managed
// origin values, so hand-made backups are never touched.
const OriginTag = "managed-origin"

// ParentTag is the tag key that ties an EC2 image back to the instance it
// was created from. Images do not reference their parent in the API
// response, so the creating process records it as a tag.
const ParentTag = "managed-parent-id"

// Identity uniquely keys a backup across the fleet.
type Identity struct {
	// Region is the cloud region the backup lives in.
	Region string `json:"region"`

	// Service is the owning cloud service ("ec2" or "rds").
	Service Service `json:"service"`

	// ParentID identifies the instance, volume or database the backup
	// was produced from.
	ParentID string `json:"parent_id"`

	// BackupID identifies the backup itself (snapshot ID, image ID or
	// DB snapshot ARN).
	BackupID string `json:"backup_id"`
}

// Parent returns the parent-resource key of the identity. Retention state is
// tracked per parent: one backup per rule period per parent is retained.
func (id Identity) Parent() ParentKey {
	return ParentKey{Region: id.Region, Service: id.Service, ParentID: id.ParentID}
}

// String renders the identity for log lines and reports.
func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", id.Region, id.Service, id.ParentID, id.BackupID)
}

// ParentKey identifies the resource a backup was produced from,
// independently of any particular backup.
type ParentKey struct {
	Region   string  `json:"region"`
	Service  Service `json:"service"`
	ParentID string  `json:"parent_id"`
}

// Record is a single discovered backup: identity, creation instant and the
// full tag map, exactly as read from the cloud API. CreatedAt is the raw
// timestamp reported by the provider; the retention engine normalizes it to
// the operating granularity when building its timeline.
type Record struct {
	Identity  Identity          `json:"identity"`
	CreatedAt time.Time         `json:"created_at"`
	Tags      map[string]string `json:"tags"`
}

// HasMarker reports whether the record currently carries the deletion
// marker tag.
func (r *Record) HasMarker() bool {
	_, ok := r.Tags[MarkerTag]
	return ok
}
