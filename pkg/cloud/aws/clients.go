package aws

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/cloud"
)

// Clients bundles the per-region AWS service clients.
type Clients struct {
	EC2 EC2API
	RDS RDSAPI
}

// NewClients loads the default AWS configuration chain for a region. An
// empty region defers to the SDK's own region resolution.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws: loading configuration for region %q: %w", region, err)
	}

	return &Clients{
		EC2: ec2.NewFromConfig(cfg),
		RDS: rds.NewFromConfig(cfg),
	}, nil
}

// Register adds the region's discovery strategies and tag writers to a
// registry: EBS snapshots, EC2 images and RDS manual DB snapshots.
func Register(registry *cloud.Registry, clients *Clients, region string, filter *backup.Filter) error {
	strategies := []cloud.Strategy{
		NewSnapshotStrategy(clients.EC2, region, filter),
		NewImageStrategy(clients.EC2, region, filter),
		NewDBSnapshotStrategy(clients.RDS, region, filter),
	}
	for _, s := range strategies {
		if err := registry.AddStrategy(s); err != nil {
			return err
		}
	}

	if err := registry.AddWriter(NewEC2TagWriter(clients.EC2, region)); err != nil {
		return err
	}
	return registry.AddWriter(NewRDSTagWriter(clients.RDS, region))
}
