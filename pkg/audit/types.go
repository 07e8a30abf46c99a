package audit

import (
	"context"
	"time"
)

// Run statuses.
const (
	// RunCompleted means the run classified backups and reconciled markers.
	RunCompleted = "completed"
	// RunNothingToDo means no backups or no valid rules were available.
	RunNothingToDo = "nothing-to-do"
	// RunFailed means the run aborted before producing decisions.
	RunFailed = "failed"
)

// RunRecord represents one retention run.
type RunRecord struct {
	// Identity
	ID string `json:"id"` // UUID v4

	// Timestamps
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Inputs
	Regions       []string `json:"regions"`
	Rules         []string `json:"rules"`          // valid rule sources
	RejectedRules []string `json:"rejected_rules"` // sources that failed decoding
	DryRun        bool     `json:"dry_run"`

	// Outcome
	Status  string    `json:"status"`
	Horizon time.Time `json:"horizon,omitempty"`

	// Totals
	Discovered       int `json:"discovered"`
	Kept             int `json:"kept"`
	Deleted          int `json:"deleted"`
	MutationsApplied int `json:"mutations_applied"`
	MutationsFailed  int `json:"mutations_failed"`

	// Error holds the failure message for failed runs.
	Error string `json:"error,omitempty"`
}

// DecisionRecord represents the classification of one backup within a run.
type DecisionRecord struct {
	ID    string `json:"id"` // UUID v4
	RunID string `json:"run_id"`

	// Backup identity, flattened for querying.
	Region   string `json:"region"`
	Service  string `json:"service"`
	ParentID string `json:"parent_id"`
	BackupID string `json:"backup_id"`

	CreatedAt time.Time `json:"created_at"` // raw creation timestamp
	DecidedAt time.Time `json:"decided_at"` // normalized timeline instant

	Outcome string `json:"outcome"` // "keep" or "delete"
	Rule    string `json:"rule,omitempty"`
	Reason  string `json:"reason"`

	// Marker mutation attempted for this backup, if any.
	MutationOp    string `json:"mutation_op,omitempty"` // "add" or "remove"
	MutationError string `json:"mutation_error,omitempty"`
}

// Query defines filter parameters for querying audit records.
type Query struct {
	// Time range, applied to DecidedAt for decisions and StartedAt for runs.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	RunID    string `json:"run_id,omitempty"`
	Region   string `json:"region,omitempty"`
	Service  string `json:"service,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Outcome  string `json:"outcome,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Storage defines the interface for audit storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// StoreRun persists a run record.
	StoreRun(ctx context.Context, run *RunRecord) error

	// StoreDecisions persists a run's decision records in one batch.
	StoreDecisions(ctx context.Context, decisions []*DecisionRecord) error

	// Runs retrieves run records matching the query, newest first.
	Runs(ctx context.Context, query *Query) ([]*RunRecord, error)

	// Decisions retrieves decision records matching the query, in
	// ascending decided-at order.
	Decisions(ctx context.Context, query *Query) ([]*DecisionRecord, error)

	// CountDecisions returns the number of decision records matching the
	// query.
	CountDecisions(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}
