package storage

import (
	"context"
	"sort"
	"sync"

	"cloudkeep/janus/pkg/audit"
)

// MemoryStorage implements audit.Storage using in-memory maps. It is
// intended for tests and dry-run experiments, not production.
type MemoryStorage struct {
	runs      map[string]*audit.RunRecord
	decisions []*audit.DecisionRecord
	mu        sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		runs: make(map[string]*audit.RunRecord),
	}
}

// StoreRun persists a run record to memory.
func (s *MemoryStorage) StoreRun(_ context.Context, run *audit.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

// StoreDecisions persists decision records to memory.
func (s *MemoryStorage) StoreDecisions(_ context.Context, decisions []*audit.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range decisions {
		cp := *d
		s.decisions = append(s.decisions, &cp)
	}
	return nil
}

// Runs retrieves run records matching the query, newest first.
func (s *MemoryStorage) Runs(_ context.Context, query *audit.Query) ([]*audit.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*audit.RunRecord
	for _, run := range s.runs {
		if !matchesRun(run, query) {
			continue
		}
		cp := *run
		results = append(results, &cp)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})
	return paginate(results, query), nil
}

// Decisions retrieves decision records matching the query in ascending
// decided-at order.
func (s *MemoryStorage) Decisions(_ context.Context, query *audit.Query) ([]*audit.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*audit.DecisionRecord
	for _, d := range s.decisions {
		if !matchesDecision(d, query) {
			continue
		}
		cp := *d
		results = append(results, &cp)
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].DecidedAt.Equal(results[j].DecidedAt) {
			return results[i].DecidedAt.Before(results[j].DecidedAt)
		}
		return results[i].BackupID < results[j].BackupID
	})
	return paginate(results, query), nil
}

// CountDecisions returns the number of matching decision records.
func (s *MemoryStorage) CountDecisions(_ context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, d := range s.decisions {
		if matchesDecision(d, query) {
			n++
		}
	}
	return n, nil
}

// Close releases nothing; memory storage holds no external resources.
func (s *MemoryStorage) Close() error {
	return nil
}

func matchesRun(run *audit.RunRecord, query *audit.Query) bool {
	if query == nil {
		return true
	}
	if query.RunID != "" && run.ID != query.RunID {
		return false
	}
	if query.StartTime != nil && run.StartedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && run.StartedAt.After(*query.EndTime) {
		return false
	}
	return true
}

func matchesDecision(d *audit.DecisionRecord, query *audit.Query) bool {
	if query == nil {
		return true
	}
	if query.RunID != "" && d.RunID != query.RunID {
		return false
	}
	if query.Region != "" && d.Region != query.Region {
		return false
	}
	if query.Service != "" && d.Service != query.Service {
		return false
	}
	if query.ParentID != "" && d.ParentID != query.ParentID {
		return false
	}
	if query.Outcome != "" && d.Outcome != query.Outcome {
		return false
	}
	if query.StartTime != nil && d.DecidedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && d.DecidedAt.After(*query.EndTime) {
		return false
	}
	return true
}

func paginate[T any](results []T, query *audit.Query) []T {
	if query == nil {
		return results
	}
	start := query.Offset
	if start > len(results) {
		return nil
	}
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results
}
