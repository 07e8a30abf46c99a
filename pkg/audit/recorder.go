package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/reconcile"
	"cloudkeep/janus/pkg/retention"
)

// Recorder turns a run's outputs into audit records and persists them.
type Recorder struct {
	storage Storage
	logger  *slog.Logger
}

// NewRecorder creates a recorder backed by the given storage.
func NewRecorder(storage Storage) *Recorder {
	return &Recorder{
		storage: storage,
		logger:  slog.Default().With("component", "audit"),
	}
}

// Begin opens a run record. The record is persisted when the run finishes,
// through Complete, NothingToDo or Fail.
func (r *Recorder) Begin(regions, rules, rejected []string, dryRun bool) *RunRecord {
	return &RunRecord{
		ID:            uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		Regions:       regions,
		Rules:         rules,
		RejectedRules: rejected,
		DryRun:        dryRun,
	}
}

// Complete finalizes a successful run: it stores the run record and one
// decision record per backup, annotated with any marker mutation attempted.
func (r *Recorder) Complete(ctx context.Context, run *RunRecord, horizon time.Time, decisions []retention.Decision, sum *reconcile.Summary) error {
	run.FinishedAt = time.Now().UTC()
	run.Status = RunCompleted
	run.Horizon = horizon
	run.Discovered = len(decisions)

	mutations := make(map[backup.Identity]*reconcile.Result)
	if sum != nil {
		for i := range sum.Applied {
			res := &sum.Applied[i]
			mutations[res.Identity] = res
		}
		run.MutationsApplied = len(sum.Applied) - sum.Failed
		run.MutationsFailed = sum.Failed
	}

	records := make([]*DecisionRecord, 0, len(decisions))
	for i := range decisions {
		d := &decisions[i]
		switch d.Outcome {
		case retention.OutcomeKeep:
			run.Kept++
		case retention.OutcomeDelete:
			run.Deleted++
		}

		rec := &DecisionRecord{
			ID:        uuid.NewString(),
			RunID:     run.ID,
			Region:    d.Record.Identity.Region,
			Service:   string(d.Record.Identity.Service),
			ParentID:  d.Record.Identity.ParentID,
			BackupID:  d.Record.Identity.BackupID,
			CreatedAt: d.Record.CreatedAt,
			DecidedAt: d.At,
			Outcome:   string(d.Outcome),
			Rule:      d.Rule,
			Reason:    d.Reason,
		}
		if res, ok := mutations[d.Record.Identity]; ok {
			rec.MutationOp = string(res.Op)
			if res.Err != nil {
				rec.MutationError = res.Err.Error()
			}
		}
		records = append(records, rec)
	}

	if err := r.storage.StoreRun(ctx, run); err != nil {
		return NewRecorderError(run.ID, err)
	}
	if err := r.storage.StoreDecisions(ctx, records); err != nil {
		return NewRecorderError(run.ID, err)
	}

	r.logger.Info("run recorded",
		"run_id", run.ID,
		"kept", run.Kept,
		"deleted", run.Deleted,
		"mutations", run.MutationsApplied)
	return nil
}

// NothingToDo finalizes a run that had no classification work.
func (r *Recorder) NothingToDo(ctx context.Context, run *RunRecord) error {
	run.FinishedAt = time.Now().UTC()
	run.Status = RunNothingToDo
	if err := r.storage.StoreRun(ctx, run); err != nil {
		return NewRecorderError(run.ID, err)
	}
	return nil
}

// Fail finalizes a run that aborted before producing decisions.
func (r *Recorder) Fail(ctx context.Context, run *RunRecord, cause error) error {
	run.FinishedAt = time.Now().UTC()
	run.Status = RunFailed
	if cause != nil {
		run.Error = cause.Error()
	}
	if err := r.storage.StoreRun(ctx, run); err != nil {
		return NewRecorderError(run.ID, err)
	}
	return nil
}
