package aws

import (
	"context"
	"testing"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"cloudkeep/janus/pkg/backup"
)

type fakeRDS struct {
	pages []*rds.DescribeDBSnapshotsOutput

	addInputs    []*rds.AddTagsToResourceInput
	removeInputs []*rds.RemoveTagsFromResourceInput
}

func (f *fakeRDS) DescribeDBSnapshots(_ context.Context, params *rds.DescribeDBSnapshotsInput, _ ...func(*rds.Options)) (*rds.DescribeDBSnapshotsOutput, error) {
	page := 0
	if params.Marker != nil {
		page = 1
	}
	return f.pages[page], nil
}

func (f *fakeRDS) AddTagsToResource(_ context.Context, params *rds.AddTagsToResourceInput, _ ...func(*rds.Options)) (*rds.AddTagsToResourceOutput, error) {
	f.addInputs = append(f.addInputs, params)
	return &rds.AddTagsToResourceOutput{}, nil
}

func (f *fakeRDS) RemoveTagsFromResource(_ context.Context, params *rds.RemoveTagsFromResourceInput, _ ...func(*rds.Options)) (*rds.RemoveTagsFromResourceOutput, error) {
	f.removeInputs = append(f.removeInputs, params)
	return &rds.RemoveTagsFromResourceOutput{}, nil
}

func dbSnapshot(id, instance, status, origin string, createdAt time.Time) rdstypes.DBSnapshot {
	return rdstypes.DBSnapshot{
		DBSnapshotIdentifier: sdk.String(id),
		DBSnapshotArn:        sdk.String("arn:aws:rds:us-east-1:123456789012:snapshot:" + id),
		DBInstanceIdentifier: sdk.String(instance),
		Status:               sdk.String(status),
		SnapshotCreateTime:   sdk.Time(createdAt),
		TagList: []rdstypes.Tag{
			{Key: sdk.String(backup.OriginTag), Value: sdk.String(origin)},
		},
	}
}

func TestDBSnapshotStrategy_Discover(t *testing.T) {
	created := time.Date(2025, time.June, 17, 4, 0, 0, 0, time.UTC)
	fake := &fakeRDS{
		pages: []*rds.DescribeDBSnapshotsOutput{
			{
				DBSnapshots: []rdstypes.DBSnapshot{
					dbSnapshot("db-1-snap", "db-1", "available", "snapshot", created),
					dbSnapshot("db-1-creating", "db-1", "creating", "snapshot", created.Add(time.Hour)),
				},
				Marker: sdk.String("page-2"),
			},
			{
				DBSnapshots: []rdstypes.DBSnapshot{
					dbSnapshot("db-2-stop", "db-2", "available", "snapshot-stop", created.Add(2*time.Hour)),
					// Not a managed origin: hand-made snapshot, skipped.
					dbSnapshot("db-2-manual", "db-2", "available", "", created.Add(3*time.Hour)),
				},
			},
		},
	}

	s := NewDBSnapshotStrategy(fake, "us-east-1", nil)
	records, err := s.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (available, managed-origin only)", len(records))
	}
	got := records[0]
	if got.Identity.Service != backup.ServiceRDS || got.Identity.ParentID != "db-1" {
		t.Errorf("identity = %s, want rds snapshot of db-1", got.Identity)
	}
	if got.Identity.BackupID != "arn:aws:rds:us-east-1:123456789012:snapshot:db-1-snap" {
		t.Errorf("BackupID = %q, want the snapshot ARN", got.Identity.BackupID)
	}
	if records[1].Identity.ParentID != "db-2" {
		t.Errorf("records[1] parent = %q, want db-2", records[1].Identity.ParentID)
	}
}

func TestRDSTagWriter(t *testing.T) {
	fake := &fakeRDS{}
	w := NewRDSTagWriter(fake, "us-east-1")
	id := backup.Identity{
		Region:   "us-east-1",
		Service:  backup.ServiceRDS,
		ParentID: "db-1",
		BackupID: "arn:aws:rds:us-east-1:123456789012:snapshot:db-1-snap",
	}

	if err := w.AddMarker(context.Background(), id); err != nil {
		t.Fatalf("AddMarker: %v", err)
	}
	if len(fake.addInputs) != 1 {
		t.Fatalf("AddTagsToResource called %d times, want 1", len(fake.addInputs))
	}
	in := fake.addInputs[0]
	if sdk.ToString(in.ResourceName) != id.BackupID {
		t.Errorf("ResourceName = %q, want the ARN", sdk.ToString(in.ResourceName))
	}
	if len(in.Tags) != 1 || sdk.ToString(in.Tags[0].Key) != backup.MarkerTag {
		t.Errorf("Tags = %v, want the deletion marker", in.Tags)
	}

	if err := w.RemoveMarker(context.Background(), id); err != nil {
		t.Fatalf("RemoveMarker: %v", err)
	}
	if len(fake.removeInputs) != 1 {
		t.Fatalf("RemoveTagsFromResource called %d times, want 1", len(fake.removeInputs))
	}
	if got := fake.removeInputs[0].TagKeys; len(got) != 1 || got[0] != backup.MarkerTag {
		t.Errorf("TagKeys = %v, want [%s]", got, backup.MarkerTag)
	}
}
