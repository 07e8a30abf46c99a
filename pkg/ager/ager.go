package ager

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloudkeep/janus/pkg/audit"
	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/cloud"
	"cloudkeep/janus/pkg/interval"
	"cloudkeep/janus/pkg/period"
	"cloudkeep/janus/pkg/reconcile"
	"cloudkeep/janus/pkg/retention"
	"cloudkeep/janus/pkg/telemetry/metrics"
)

// Discoverer returns all discoverable backups plus per-strategy failures.
// *cloud.Registry satisfies it.
type Discoverer interface {
	Discover(ctx context.Context) ([]backup.Record, []*cloud.DiscoveryError)
}

// Options configures a run.
type Options struct {
	// Rules is the retention policy, one rule string per tier.
	Rules []string

	// Regions is informational, recorded in the audit trail.
	Regions []string

	// Location is the calendar for period boundaries. Nil means the
	// system's local timezone.
	Location *time.Location

	// DryRun computes decisions without mutating tags.
	DryRun bool

	// Now overrides the reference clock. Nil means time.Now.
	Now func() time.Time
}

// Deps are the run's collaborators. Recorder and Metrics may be nil.
type Deps struct {
	Discovery Discoverer
	Mutator   reconcile.Mutator
	Recorder  *audit.Recorder
	Metrics   *metrics.Collector
}

// Report is the outcome of one run.
type Report struct {
	RunID  string
	Status string // audit.RunCompleted or audit.RunNothingToDo

	Horizon           time.Time
	Rejected          []*interval.ParseError
	DiscoveryFailures []*cloud.DiscoveryError
	Decisions         []retention.Decision
	Reconcile         *reconcile.Summary
}

// Kept returns the number of keep decisions.
func (r *Report) Kept() int { return r.count(retention.OutcomeKeep) }

// Deleted returns the number of delete decisions.
func (r *Report) Deleted() int { return r.count(retention.OutcomeDelete) }

func (r *Report) count(outcome retention.Outcome) int {
	n := 0
	for i := range r.Decisions {
		if r.Decisions[i].Outcome == outcome {
			n++
		}
	}
	return n
}

// Ager runs the retention pipeline.
type Ager struct {
	opts   Options
	deps   Deps
	logger *slog.Logger
}

// New creates an Ager.
func New(opts Options, deps Deps) *Ager {
	return &Ager{
		opts:   opts,
		deps:   deps,
		logger: slog.Default().With("component", "ager"),
	}
}

// Run executes one retention pass. A pass with no backups or no valid rules
// completes with status nothing-to-do rather than failing. Discovery
// failures are carried in the report; the backups a failed strategy would
// have contributed are judged on a later run instead.
func (a *Ager) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	rules, rejected := interval.ParseAll(a.opts.Rules)
	for _, perr := range rejected {
		a.logger.Warn("dropping invalid retention rule",
			"rule", perr.Input,
			"error", perr.Reason)
		if a.deps.Metrics != nil {
			a.deps.Metrics.RecordRejectedRule()
		}
	}

	report := &Report{Rejected: rejected}

	var run *audit.RunRecord
	if a.deps.Recorder != nil {
		run = a.deps.Recorder.Begin(a.opts.Regions, interval.Sources(rules), parseInputs(rejected), a.opts.DryRun)
		report.RunID = run.ID
	}

	backups, failures := a.deps.Discovery.Discover(ctx)
	report.DiscoveryFailures = failures
	if a.deps.Metrics != nil {
		for _, derr := range failures {
			a.deps.Metrics.RecordDiscoveryFailure(derr.Region, string(derr.Service), derr.Resource)
		}
		a.recordDiscovered(backups)
	}

	now := time.Now()
	if a.opts.Now != nil {
		now = a.opts.Now()
	}
	anchors := period.Compute(retention.Normalize(now), a.opts.Location)

	timeline, err := retention.Build(backups, rules, anchors)
	if errors.Is(err, retention.ErrNothingToDo) {
		a.logger.Info("nothing to do",
			"backups", len(backups),
			"rules", len(rules))
		report.Status = audit.RunNothingToDo
		a.finish(ctx, report, run, started)
		return report, nil
	}
	if err != nil {
		if run != nil {
			a.deps.Recorder.Fail(ctx, run, err)
		}
		return nil, err
	}

	report.Horizon = timeline.Horizon()
	report.Decisions = retention.Partition(timeline)
	if a.deps.Metrics != nil {
		for i := range report.Decisions {
			d := &report.Decisions[i]
			a.deps.Metrics.RecordDecision(string(d.Outcome), d.Reason)
		}
	}

	reconciler := reconcile.New(a.deps.Mutator, a.opts.DryRun)
	summary, err := reconciler.Apply(ctx, report.Decisions)
	report.Reconcile = summary
	if err != nil {
		if run != nil {
			a.deps.Recorder.Fail(ctx, run, err)
		}
		return report, err
	}
	if a.deps.Metrics != nil && !a.opts.DryRun {
		for i := range summary.Applied {
			res := &summary.Applied[i]
			a.deps.Metrics.RecordMutation(string(res.Op), res.Err != nil)
		}
	}

	report.Status = audit.RunCompleted
	a.finish(ctx, report, run, started)

	a.logger.Info("run finished",
		"run_id", report.RunID,
		"horizon", report.Horizon,
		"kept", report.Kept(),
		"deleted", report.Deleted(),
		"dry_run", a.opts.DryRun)
	return report, nil
}

// finish records the run in the audit trail and run-level metrics. Audit
// storage failures are logged, not returned; they must not undo a completed
// reconciliation.
func (a *Ager) finish(ctx context.Context, report *Report, run *audit.RunRecord, started time.Time) {
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordRun(report.Status, time.Since(started))
	}
	if run == nil {
		return
	}

	var err error
	if report.Status == audit.RunNothingToDo {
		err = a.deps.Recorder.NothingToDo(ctx, run)
	} else {
		err = a.deps.Recorder.Complete(ctx, run, report.Horizon, report.Decisions, report.Reconcile)
	}
	if err != nil {
		a.logger.Error("recording audit trail failed", "run_id", run.ID, "error", err)
	}
}

func (a *Ager) recordDiscovered(backups []backup.Record) {
	type key struct {
		region  string
		service backup.Service
	}
	counts := make(map[key]int)
	for i := range backups {
		id := backups[i].Identity
		counts[key{region: id.Region, service: id.Service}]++
	}
	for k, n := range counts {
		a.deps.Metrics.RecordDiscovered(k.region, string(k.service), n)
	}
}

func parseInputs(errs []*interval.ParseError) []string {
	out := make([]string, 0, len(errs))
	for _, perr := range errs {
		out = append(out, perr.Input)
	}
	return out
}
