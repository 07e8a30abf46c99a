package cloud_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloudkeep/janus/internal/cloudtest"
	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/cloud"
)

func record(region, parent, id string, createdAt time.Time) backup.Record {
	return backup.Record{
		Identity: backup.Identity{
			Region:   region,
			Service:  backup.ServiceEC2,
			ParentID: parent,
			BackupID: id,
		},
		CreatedAt: createdAt,
		Tags:      map[string]string{backup.OriginTag: "snapshot"},
	}
}

func TestRegistry_DuplicateStrategy(t *testing.T) {
	r := cloud.NewRegistry()
	key := cloud.Key{Service: backup.ServiceEC2, Resource: "snapshot"}

	if err := r.AddStrategy(&cloudtest.FakeStrategy{FakeKey: key, FakeRegion: "us-east-1"}); err != nil {
		t.Fatalf("AddStrategy: %v", err)
	}
	if err := r.AddStrategy(&cloudtest.FakeStrategy{FakeKey: key, FakeRegion: "us-east-1"}); err == nil {
		t.Error("duplicate strategy registration should fail")
	}
	if err := r.AddStrategy(&cloudtest.FakeStrategy{FakeKey: key, FakeRegion: "eu-west-1"}); err != nil {
		t.Errorf("same key in another region should register: %v", err)
	}
}

func TestRegistry_DiscoverMergesAndSorts(t *testing.T) {
	base := time.Date(2025, time.June, 17, 4, 0, 0, 0, time.UTC)
	r := cloud.NewRegistry()

	err := r.AddStrategy(&cloudtest.FakeStrategy{
		FakeKey:    cloud.Key{Service: backup.ServiceEC2, Resource: "snapshot"},
		FakeRegion: "us-east-1",
		Records: []backup.Record{
			record("us-east-1", "vol-1", "snap-later", base.Add(2*time.Hour)),
		},
	})
	if err != nil {
		t.Fatalf("AddStrategy: %v", err)
	}
	err = r.AddStrategy(&cloudtest.FakeStrategy{
		FakeKey:    cloud.Key{Service: backup.ServiceEC2, Resource: "image"},
		FakeRegion: "us-east-1",
		Records: []backup.Record{
			record("us-east-1", "i-1", "ami-earlier", base),
		},
	})
	if err != nil {
		t.Fatalf("AddStrategy: %v", err)
	}

	records, failures := r.Discover(context.Background())
	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none", failures)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Identity.BackupID != "ami-earlier" {
		t.Errorf("records[0] = %s, want ami-earlier first by creation time", records[0].Identity.BackupID)
	}
}

func TestRegistry_DiscoverIsolatesFailures(t *testing.T) {
	base := time.Date(2025, time.June, 17, 4, 0, 0, 0, time.UTC)
	r := cloud.NewRegistry()

	err := r.AddStrategy(&cloudtest.FakeStrategy{
		FakeKey:    cloud.Key{Service: backup.ServiceEC2, Resource: "snapshot"},
		FakeRegion: "us-east-1",
		Err:        errors.New("throttled"),
	})
	if err != nil {
		t.Fatalf("AddStrategy: %v", err)
	}
	err = r.AddStrategy(&cloudtest.FakeStrategy{
		FakeKey:    cloud.Key{Service: backup.ServiceRDS, Resource: "db-snapshot"},
		FakeRegion: "us-east-1",
		Records: []backup.Record{
			record("us-east-1", "db-1", "rds:db-1-snap", base),
		},
	})
	if err != nil {
		t.Fatalf("AddStrategy: %v", err)
	}

	records, failures := r.Discover(context.Background())
	if len(records) != 1 {
		t.Errorf("got %d records, want the healthy strategy's 1", len(records))
	}
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	if failures[0].Resource != "snapshot" || failures[0].Region != "us-east-1" {
		t.Errorf("failure = %+v, want the snapshot strategy's", failures[0])
	}
}

func TestRegistry_MutationRouting(t *testing.T) {
	r := cloud.NewRegistry()
	ec2Writer := &cloudtest.FakeWriter{FakeService: backup.ServiceEC2, FakeRegion: "us-east-1"}
	rdsWriter := &cloudtest.FakeWriter{FakeService: backup.ServiceRDS, FakeRegion: "us-east-1"}
	if err := r.AddWriter(ec2Writer); err != nil {
		t.Fatalf("AddWriter: %v", err)
	}
	if err := r.AddWriter(rdsWriter); err != nil {
		t.Fatalf("AddWriter: %v", err)
	}

	ctx := context.Background()
	ec2ID := backup.Identity{Region: "us-east-1", Service: backup.ServiceEC2, ParentID: "vol-1", BackupID: "snap-1"}
	rdsID := backup.Identity{Region: "us-east-1", Service: backup.ServiceRDS, ParentID: "db-1", BackupID: "rds:snap-1"}

	if err := r.AddMarker(ctx, ec2ID); err != nil {
		t.Fatalf("AddMarker: %v", err)
	}
	if err := r.RemoveMarker(ctx, rdsID); err != nil {
		t.Fatalf("RemoveMarker: %v", err)
	}

	if len(ec2Writer.Added) != 1 || ec2Writer.Added[0].BackupID != "snap-1" {
		t.Errorf("ec2 writer added %v, want snap-1", ec2Writer.Added)
	}
	if len(rdsWriter.Removed) != 1 || rdsWriter.Removed[0].BackupID != "rds:snap-1" {
		t.Errorf("rds writer removed %v, want rds:snap-1", rdsWriter.Removed)
	}

	unknown := backup.Identity{Region: "ap-south-1", Service: backup.ServiceEC2, BackupID: "snap-x"}
	err := r.AddMarker(ctx, unknown)
	var merr *cloud.MutationError
	if !errors.As(err, &merr) {
		t.Fatalf("err = %v, want *MutationError for unregistered region", err)
	}
}
