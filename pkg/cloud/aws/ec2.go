package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/cloud"
)

// Origin tag values written by the managed lifecycle process.
var (
	snapshotOrigins = []string{"snapshot"}
	imageOrigins    = []string{"image", "reboot-image"}
)

// EC2API is the subset of the EC2 client used here. *ec2.Client satisfies
// it; tests substitute a fake.
type EC2API interface {
	DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
	DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	DeleteTags(ctx context.Context, params *ec2.DeleteTagsInput, optFns ...func(*ec2.Options)) (*ec2.DeleteTagsOutput, error)
}

// SnapshotStrategy discovers completed EBS volume snapshots owned by the
// account.
type SnapshotStrategy struct {
	client EC2API
	region string
	filter *backup.Filter
}

// NewSnapshotStrategy creates a snapshot discovery strategy for one region.
func NewSnapshotStrategy(client EC2API, region string, filter *backup.Filter) *SnapshotStrategy {
	return &SnapshotStrategy{client: client, region: region, filter: filter}
}

// Key identifies the strategy.
func (s *SnapshotStrategy) Key() cloud.Key {
	return cloud.Key{Service: backup.ServiceEC2, Resource: "snapshot"}
}

// Region returns the strategy's region.
func (s *SnapshotStrategy) Region() string { return s.region }

// Discover drains the snapshot paginator and returns managed snapshots
// passing the tag filter.
func (s *SnapshotStrategy) Discover(ctx context.Context) ([]backup.Record, error) {
	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters: append([]ec2types.Filter{
			{Name: aws.String("status"), Values: []string{"completed"}},
			{Name: aws.String("tag:" + backup.OriginTag), Values: snapshotOrigins},
		}, serverSideFilters(s.filter)...),
	}

	var records []backup.Record
	paginator := ec2.NewDescribeSnapshotsPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, snap := range page.Snapshots {
			tags := tagsToMap(snap.Tags)
			if !matchFilter(s.filter, tags) {
				continue
			}
			records = append(records, backup.Record{
				Identity: backup.Identity{
					Region:   s.region,
					Service:  backup.ServiceEC2,
					ParentID: aws.ToString(snap.VolumeId),
					BackupID: aws.ToString(snap.SnapshotId),
				},
				CreatedAt: aws.ToTime(snap.StartTime),
				Tags:      tags,
			})
		}
	}
	return records, nil
}

// ImageStrategy discovers available EC2 instance images owned by the
// account. Images do not carry a parent reference in the API response, so
// the parent instance is read from the managed-parent-id tag; images
// missing it are skipped.
type ImageStrategy struct {
	client EC2API
	region string
	filter *backup.Filter
}

// NewImageStrategy creates an image discovery strategy for one region.
func NewImageStrategy(client EC2API, region string, filter *backup.Filter) *ImageStrategy {
	return &ImageStrategy{client: client, region: region, filter: filter}
}

// Key identifies the strategy.
func (s *ImageStrategy) Key() cloud.Key {
	return cloud.Key{Service: backup.ServiceEC2, Resource: "image"}
}

// Region returns the strategy's region.
func (s *ImageStrategy) Region() string { return s.region }

// Discover drains the image paginator and returns managed images passing
// the tag filter.
func (s *ImageStrategy) Discover(ctx context.Context) ([]backup.Record, error) {
	input := &ec2.DescribeImagesInput{
		Owners: []string{"self"},
		Filters: append([]ec2types.Filter{
			{Name: aws.String("state"), Values: []string{"available"}},
			{Name: aws.String("tag:" + backup.OriginTag), Values: imageOrigins},
		}, serverSideFilters(s.filter)...),
	}

	var records []backup.Record
	paginator := ec2.NewDescribeImagesPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, image := range page.Images {
			tags := tagsToMap(image.Tags)
			if !matchFilter(s.filter, tags) {
				continue
			}
			parent, ok := tags[backup.ParentTag]
			if !ok {
				continue
			}
			createdAt, err := time.Parse(time.RFC3339, aws.ToString(image.CreationDate))
			if err != nil {
				return nil, fmt.Errorf("image %s: bad creation date %q: %w",
					aws.ToString(image.ImageId), aws.ToString(image.CreationDate), err)
			}
			records = append(records, backup.Record{
				Identity: backup.Identity{
					Region:   s.region,
					Service:  backup.ServiceEC2,
					ParentID: parent,
					BackupID: aws.ToString(image.ImageId),
				},
				CreatedAt: createdAt,
				Tags:      tags,
			})
		}
	}
	return records, nil
}

// EC2TagWriter mutates the deletion marker on EC2 resources. CreateTags and
// DeleteTags accept any EC2 resource ID, so one writer covers snapshots and
// images alike.
type EC2TagWriter struct {
	client EC2API
	region string
}

// NewEC2TagWriter creates a tag writer for one region.
func NewEC2TagWriter(client EC2API, region string) *EC2TagWriter {
	return &EC2TagWriter{client: client, region: region}
}

// Service returns the writer's service.
func (w *EC2TagWriter) Service() backup.Service { return backup.ServiceEC2 }

// Region returns the writer's region.
func (w *EC2TagWriter) Region() string { return w.region }

// AddMarker tags the resource with the deletion marker.
func (w *EC2TagWriter) AddMarker(ctx context.Context, id backup.Identity) error {
	_, err := w.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{id.BackupID},
		Tags: []ec2types.Tag{
			{Key: aws.String(backup.MarkerTag), Value: aws.String("")},
		},
	})
	if err != nil {
		return cloud.NewMutationError(id, "add", err)
	}
	return nil
}

// RemoveMarker clears the deletion marker from the resource.
func (w *EC2TagWriter) RemoveMarker(ctx context.Context, id backup.Identity) error {
	_, err := w.client.DeleteTags(ctx, &ec2.DeleteTagsInput{
		Resources: []string{id.BackupID},
		Tags: []ec2types.Tag{
			{Key: aws.String(backup.MarkerTag)},
		},
	})
	if err != nil {
		return cloud.NewMutationError(id, "remove", err)
	}
	return nil
}

// serverSideFilters converts the pushable parts of a tag filter into EC2
// describe filters. NoKeys has no server-side form and stays client-side.
func serverSideFilters(f *backup.Filter) []ec2types.Filter {
	if f == nil {
		return nil
	}
	var filters []ec2types.Filter
	for _, set := range f.AnyKeys {
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("tag-key"),
			Values: set,
		})
	}
	for _, kv := range f.KeyValues {
		if len(kv.Values) == 0 {
			filters = append(filters, ec2types.Filter{
				Name:   aws.String("tag-key"),
				Values: []string{kv.Key},
			})
			continue
		}
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("tag:" + kv.Key),
			Values: kv.Values,
		})
	}
	return filters
}

func matchFilter(f *backup.Filter, tags map[string]string) bool {
	if f == nil {
		return true
	}
	return f.Match(tags)
}

func tagsToMap(tags []ec2types.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, tag := range tags {
		out[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return out
}
