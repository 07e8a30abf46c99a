package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/cloud"
)

var dbSnapshotOrigins = []string{"snapshot", "snapshot-stop"}

// RDSAPI is the subset of the RDS client used here. *rds.Client satisfies
// it; tests substitute a fake.
type RDSAPI interface {
	DescribeDBSnapshots(ctx context.Context, params *rds.DescribeDBSnapshotsInput, optFns ...func(*rds.Options)) (*rds.DescribeDBSnapshotsOutput, error)
	AddTagsToResource(ctx context.Context, params *rds.AddTagsToResourceInput, optFns ...func(*rds.Options)) (*rds.AddTagsToResourceOutput, error)
	RemoveTagsFromResource(ctx context.Context, params *rds.RemoveTagsFromResourceInput, optFns ...func(*rds.Options)) (*rds.RemoveTagsFromResourceOutput, error)
}

// DBSnapshotStrategy discovers available manual RDS DB snapshots. RDS
// describe filters cannot express tag conditions, so all tag filtering
// happens client-side against the TagList returned inline with each
// snapshot. The snapshot ARN doubles as the backup ID because RDS tag
// operations address resources by ARN.
type DBSnapshotStrategy struct {
	client RDSAPI
	region string
	filter *backup.Filter
}

// NewDBSnapshotStrategy creates a DB snapshot discovery strategy for one
// region.
func NewDBSnapshotStrategy(client RDSAPI, region string, filter *backup.Filter) *DBSnapshotStrategy {
	return &DBSnapshotStrategy{client: client, region: region, filter: filter}
}

// Key identifies the strategy.
func (s *DBSnapshotStrategy) Key() cloud.Key {
	return cloud.Key{Service: backup.ServiceRDS, Resource: "db-snapshot"}
}

// Region returns the strategy's region.
func (s *DBSnapshotStrategy) Region() string { return s.region }

// Discover drains the DB snapshot paginator and returns managed snapshots
// passing the tag filter.
func (s *DBSnapshotStrategy) Discover(ctx context.Context) ([]backup.Record, error) {
	input := &rds.DescribeDBSnapshotsInput{
		SnapshotType: aws.String("manual"),
	}

	var records []backup.Record
	paginator := rds.NewDescribeDBSnapshotsPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, snap := range page.DBSnapshots {
			if aws.ToString(snap.Status) != "available" {
				continue
			}
			tags := rdsTagsToMap(snap.TagList)
			if !originAllowed(tags[backup.OriginTag]) {
				continue
			}
			if !matchFilter(s.filter, tags) {
				continue
			}
			records = append(records, backup.Record{
				Identity: backup.Identity{
					Region:   s.region,
					Service:  backup.ServiceRDS,
					ParentID: aws.ToString(snap.DBInstanceIdentifier),
					BackupID: aws.ToString(snap.DBSnapshotArn),
				},
				CreatedAt: aws.ToTime(snap.SnapshotCreateTime),
				Tags:      tags,
			})
		}
	}
	return records, nil
}

// RDSTagWriter mutates the deletion marker on RDS DB snapshots, addressed
// by ARN.
type RDSTagWriter struct {
	client RDSAPI
	region string
}

// NewRDSTagWriter creates a tag writer for one region.
func NewRDSTagWriter(client RDSAPI, region string) *RDSTagWriter {
	return &RDSTagWriter{client: client, region: region}
}

// Service returns the writer's service.
func (w *RDSTagWriter) Service() backup.Service { return backup.ServiceRDS }

// Region returns the writer's region.
func (w *RDSTagWriter) Region() string { return w.region }

// AddMarker tags the snapshot with the deletion marker.
func (w *RDSTagWriter) AddMarker(ctx context.Context, id backup.Identity) error {
	_, err := w.client.AddTagsToResource(ctx, &rds.AddTagsToResourceInput{
		ResourceName: aws.String(id.BackupID),
		Tags: []rdstypes.Tag{
			{Key: aws.String(backup.MarkerTag), Value: aws.String("")},
		},
	})
	if err != nil {
		return cloud.NewMutationError(id, "add", err)
	}
	return nil
}

// RemoveMarker clears the deletion marker from the snapshot.
func (w *RDSTagWriter) RemoveMarker(ctx context.Context, id backup.Identity) error {
	_, err := w.client.RemoveTagsFromResource(ctx, &rds.RemoveTagsFromResourceInput{
		ResourceName: aws.String(id.BackupID),
		TagKeys:      []string{backup.MarkerTag},
	})
	if err != nil {
		return cloud.NewMutationError(id, "remove", err)
	}
	return nil
}

func originAllowed(origin string) bool {
	for _, allowed := range dbSnapshotOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func rdsTagsToMap(tags []rdstypes.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, tag := range tags {
		out[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return out
}
