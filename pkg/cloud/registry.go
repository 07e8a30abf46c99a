package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"cloudkeep/janus/pkg/backup"
)

// Key identifies a strategy: one per service and resource type.
type Key struct {
	Service  backup.Service
	Resource string
}

// String renders the key for log lines.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Service, k.Resource)
}

// Strategy discovers one resource type's backups within one region. A
// strategy returns fully resolved records: identity, creation timestamp and
// the complete tag map, with pagination drained.
type Strategy interface {
	Key() Key
	Region() string
	Discover(ctx context.Context) ([]backup.Record, error)
}

// TagWriter mutates the deletion marker for one service within one region.
// Writers must tolerate repeated application of the same mutation.
type TagWriter interface {
	Service() backup.Service
	Region() string
	AddMarker(ctx context.Context, id backup.Identity) error
	RemoveMarker(ctx context.Context, id backup.Identity) error
}

type writerKey struct {
	region  string
	service backup.Service
}

// Registry holds the strategies and tag writers for a run, constructed
// once at startup and passed by reference. It implements reconcile.Mutator
// by routing each mutation to the identity's region and service.
type Registry struct {
	strategies []Strategy
	writers    map[writerKey]TagWriter
	logger     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		writers: make(map[writerKey]TagWriter),
		logger:  slog.Default().With("component", "cloud.registry"),
	}
}

// AddStrategy registers a discovery strategy. Registering the same
// key and region twice is a configuration bug and returns an error.
func (r *Registry) AddStrategy(s Strategy) error {
	for _, existing := range r.strategies {
		if existing.Key() == s.Key() && existing.Region() == s.Region() {
			return fmt.Errorf("cloud: strategy %s already registered for region %s", s.Key(), s.Region())
		}
	}
	r.strategies = append(r.strategies, s)
	return nil
}

// AddWriter registers a tag writer for a region and service.
func (r *Registry) AddWriter(w TagWriter) error {
	key := writerKey{region: w.Region(), service: w.Service()}
	if _, ok := r.writers[key]; ok {
		return fmt.Errorf("cloud: tag writer for %s already registered in region %s", w.Service(), w.Region())
	}
	r.writers[key] = w
	return nil
}

// Strategies returns the registered strategies in registration order.
func (r *Registry) Strategies() []Strategy {
	return r.strategies
}

// Discover runs every registered strategy and merges the results. A failed
// strategy contributes a DiscoveryError instead of aborting the whole pass;
// its backups are simply absent this run and will be judged next run.
func (r *Registry) Discover(ctx context.Context) ([]backup.Record, []*DiscoveryError) {
	var records []backup.Record
	var failures []*DiscoveryError

	for _, s := range r.strategies {
		found, err := s.Discover(ctx)
		if err != nil {
			derr := NewDiscoveryError(s.Region(), s.Key().Service, s.Key().Resource, err)
			failures = append(failures, derr)
			r.logger.Error("discovery failed",
				"region", s.Region(),
				"strategy", s.Key().String(),
				"error", err)
			continue
		}
		r.logger.Info("discovered backups",
			"region", s.Region(),
			"strategy", s.Key().String(),
			"count", len(found))
		records = append(records, found...)
	}

	// Merge order is registration order; make the combined list stable for
	// downstream consumers regardless of strategy ordering.
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].Identity.BackupID < records[j].Identity.BackupID
	})

	return records, failures
}

// AddMarker routes a marker addition to the identity's tag writer.
func (r *Registry) AddMarker(ctx context.Context, id backup.Identity) error {
	w, err := r.writer(id, "add")
	if err != nil {
		return err
	}
	return w.AddMarker(ctx, id)
}

// RemoveMarker routes a marker removal to the identity's tag writer.
func (r *Registry) RemoveMarker(ctx context.Context, id backup.Identity) error {
	w, err := r.writer(id, "remove")
	if err != nil {
		return err
	}
	return w.RemoveMarker(ctx, id)
}

func (r *Registry) writer(id backup.Identity, op string) (TagWriter, error) {
	w, ok := r.writers[writerKey{region: id.Region, service: id.Service}]
	if !ok {
		return nil, NewMutationError(id, op,
			fmt.Errorf("no tag writer registered for %s in region %s", id.Service, id.Region))
	}
	return w, nil
}
