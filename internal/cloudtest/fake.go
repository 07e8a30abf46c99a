// Package cloudtest provides in-memory cloud fakes for tests.
package cloudtest

import (
	"context"
	"sync"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/cloud"
)

// FakeStrategy is a canned-response cloud.Strategy.
type FakeStrategy struct {
	FakeKey    cloud.Key
	FakeRegion string
	Records    []backup.Record
	Err        error

	Calls int
}

// Key returns the strategy key.
func (f *FakeStrategy) Key() cloud.Key { return f.FakeKey }

// Region returns the strategy region.
func (f *FakeStrategy) Region() string { return f.FakeRegion }

// Discover returns the canned records or error.
func (f *FakeStrategy) Discover(context.Context) ([]backup.Record, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Records, nil
}

// FakeWriter is a recording cloud.TagWriter.
type FakeWriter struct {
	FakeService backup.Service
	FakeRegion  string

	// FailOn maps backup IDs to the error their mutations should return.
	FailOn map[string]error

	mu      sync.Mutex
	Added   []backup.Identity
	Removed []backup.Identity
}

// Service returns the writer's service.
func (f *FakeWriter) Service() backup.Service { return f.FakeService }

// Region returns the writer's region.
func (f *FakeWriter) Region() string { return f.FakeRegion }

// AddMarker records a marker addition.
func (f *FakeWriter) AddMarker(_ context.Context, id backup.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn[id.BackupID]; err != nil {
		return err
	}
	f.Added = append(f.Added, id)
	return nil
}

// RemoveMarker records a marker removal.
func (f *FakeWriter) RemoveMarker(_ context.Context, id backup.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn[id.BackupID]; err != nil {
		return err
	}
	f.Removed = append(f.Removed, id)
	return nil
}
