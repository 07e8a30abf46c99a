package reconcile

import (
	"context"
	"log/slog"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/retention"
)

// Op identifies a marker mutation.
type Op string

const (
	// OpAdd places the deletion marker on a backup classified for deletion.
	OpAdd Op = "add"

	// OpRemove clears the deletion marker from a backup classified for
	// retention.
	OpRemove Op = "remove"
)

// Mutator writes deletion-marker tags on the cloud side. Implementations
// are expected to be safe for repeated application of the same mutation.
type Mutator interface {
	AddMarker(ctx context.Context, id backup.Identity) error
	RemoveMarker(ctx context.Context, id backup.Identity) error
}

// Result records one attempted mutation. Err is nil on success.
type Result struct {
	Identity backup.Identity `json:"identity"`
	Op       Op              `json:"op"`
	Err      error           `json:"error,omitempty"`
}

// Summary aggregates a reconciliation pass.
type Summary struct {
	// Examined is the number of decisions inspected.
	Examined int `json:"examined"`

	// Unchanged is the number of backups whose marker state already
	// matched their outcome.
	Unchanged int `json:"unchanged"`

	// Applied holds every mutation attempted, in decision order.
	Applied []Result `json:"applied,omitempty"`

	// Failed is the number of entries in Applied with a non-nil Err.
	Failed int `json:"failed"`
}

// Reconciler diffs decisions against marker state and drives a Mutator.
type Reconciler struct {
	mutator Mutator
	dryRun  bool
	logger  *slog.Logger
}

// New creates a reconciler. When dryRun is set, mutations are computed and
// reported but never handed to the mutator.
func New(mutator Mutator, dryRun bool) *Reconciler {
	return &Reconciler{
		mutator: mutator,
		dryRun:  dryRun,
		logger:  slog.Default().With("component", "reconcile"),
	}
}

// plan returns the mutation a decision calls for, or "" when the backup's
// marker already agrees with its outcome.
func plan(d *retention.Decision) Op {
	marked := d.Record.HasMarker()
	switch {
	case d.Outcome == retention.OutcomeDelete && !marked:
		return OpAdd
	case d.Outcome == retention.OutcomeKeep && marked:
		return OpRemove
	default:
		return ""
	}
}

// Apply reconciles every decision. A mutator failure is recorded against
// its identity and does not stop the pass.
func (r *Reconciler) Apply(ctx context.Context, decisions []retention.Decision) (*Summary, error) {
	sum := &Summary{}

	for i := range decisions {
		d := &decisions[i]
		sum.Examined++

		op := plan(d)
		if op == "" {
			sum.Unchanged++
			continue
		}

		res := Result{Identity: d.Record.Identity, Op: op}
		if r.dryRun {
			r.logger.Info("would mutate marker",
				"backup", d.Record.Identity.String(),
				"op", string(op))
			sum.Applied = append(sum.Applied, res)
			continue
		}

		res.Err = r.mutate(ctx, op, d.Record.Identity)
		if res.Err != nil {
			sum.Failed++
			r.logger.Error("marker mutation failed",
				"backup", d.Record.Identity.String(),
				"op", string(op),
				"error", res.Err)
		} else {
			r.logger.Info("marker mutated",
				"backup", d.Record.Identity.String(),
				"op", string(op))
		}
		sum.Applied = append(sum.Applied, res)

		if err := ctx.Err(); err != nil {
			return sum, err
		}
	}

	return sum, nil
}

func (r *Reconciler) mutate(ctx context.Context, op Op, id backup.Identity) error {
	if op == OpAdd {
		return r.mutator.AddMarker(ctx, id)
	}
	return r.mutator.RemoveMarker(ctx, id)
}
