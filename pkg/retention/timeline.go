package retention

import (
	"errors"
	"sort"
	"time"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/interval"
	"cloudkeep/janus/pkg/period"
)

// Granularity is the normalization granularity for backup creation
// timestamps. The backup-creating process runs on a 10-minute cycle, so
// truncating creation times to 10-minute UTC boundaries makes them directly
// comparable with period boundaries without any further rounding.
const Granularity = 10 * time.Minute

// ErrNothingToDo reports that a run has no classification work: either no
// backups were discovered or no valid rule produced a usable horizon. It is
// an outcome, not a failure.
var ErrNothingToDo = errors.New("retention: no backups or no valid retention rules")

// Normalize truncates a creation timestamp to the operating granularity,
// in UTC.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(Granularity)
}

// Entry is one timestamp's worth of timeline state. Backups start out as
// delete candidates; partitioning moves the retained ones over to the keep
// side, never the reverse.
type Entry struct {
	// At is the entry's timestamp.
	At time.Time

	// DeleteCandidates are backups created at this timestamp and not (yet)
	// retained, ordered by ascending backup ID.
	DeleteCandidates []*backup.Record

	// KeepCandidates are backups retained at this timestamp.
	KeepCandidates []*backup.Record

	// PeriodStarts are the rules for which a new period begins here.
	PeriodStarts []*interval.Rule

	// PeriodEnds are the rules whose overall reach ends here.
	PeriodEnds []*interval.Rule
}

// Timeline is the merged chronology of backup creation timestamps and rule
// period boundaries. Entries are keyed by instant; iteration is always in
// ascending time order.
type Timeline struct {
	entries map[int64]*Entry
	horizon time.Time
	oldest  time.Time
	count   int
}

// Horizon returns the latest rule end boundary. Backups created at or after
// it are always retained.
func (tl *Timeline) Horizon() time.Time {
	return tl.horizon
}

// Oldest returns the normalized creation timestamp of the oldest backup,
// the floor for infinite rules.
func (tl *Timeline) Oldest() time.Time {
	return tl.oldest
}

// Backups returns the number of backups on the timeline.
func (tl *Timeline) Backups() int {
	return tl.count
}

// Entries returns the timeline entries in ascending time order.
func (tl *Timeline) Entries() []*Entry {
	keys := make([]int64, 0, len(tl.entries))
	for k := range tl.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]*Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, tl.entries[k])
	}
	return out
}

// entry returns the entry at an instant, creating it with explicit empty
// state when absent.
func (tl *Timeline) entry(at time.Time) *Entry {
	at = at.UTC()
	key := at.Unix()
	e, ok := tl.entries[key]
	if !ok {
		e = &Entry{At: at}
		tl.entries[key] = e
	}
	return e
}

// Build merges discovered backups and rule boundaries into a timeline.
//
// Every backup lands in the delete-candidate set of its normalized creation
// timestamp. For each rule, the first (most recent) boundary is recorded as
// the rule's period end and every following boundary as a period start; the
// floor for infinite rules is the oldest backup. The run's horizon is the
// latest period end across all rules.
//
// Build returns ErrNothingToDo when there are no backups or when no rule
// yields a usable horizon.
func Build(backups []backup.Record, rules []*interval.Rule, anchors period.Anchors) (*Timeline, error) {
	if len(backups) == 0 || len(rules) == 0 {
		return nil, ErrNothingToDo
	}

	tl := &Timeline{entries: make(map[int64]*Entry)}

	for i := range backups {
		rec := &backups[i]
		at := Normalize(rec.CreatedAt)
		if tl.oldest.IsZero() || at.Before(tl.oldest) {
			tl.oldest = at
		}
		e := tl.entry(at)
		e.DeleteCandidates = append(e.DeleteCandidates, rec)
		tl.count++
	}

	for _, rule := range rules {
		boundaries := period.Boundaries(rule, anchors, tl.oldest)
		if len(boundaries) == 0 {
			continue
		}
		end := boundaries[0]
		tl.entry(end).PeriodEnds = append(tl.entry(end).PeriodEnds, rule)
		if end.After(tl.horizon) {
			tl.horizon = end
		}
		for _, b := range boundaries[1:] {
			tl.entry(b).PeriodStarts = append(tl.entry(b).PeriodStarts, rule)
		}
	}

	if tl.horizon.IsZero() {
		return nil, ErrNothingToDo
	}

	// Same-bucket backups are decided in ascending backup ID order, and
	// coincident boundaries in rule source order, so a rerun over the same
	// inputs classifies identically.
	for _, e := range tl.entries {
		sort.Slice(e.DeleteCandidates, func(i, j int) bool {
			return e.DeleteCandidates[i].Identity.BackupID < e.DeleteCandidates[j].Identity.BackupID
		})
		sort.Slice(e.PeriodStarts, func(i, j int) bool {
			return e.PeriodStarts[i].Source < e.PeriodStarts[j].Source
		})
		sort.Slice(e.PeriodEnds, func(i, j int) bool {
			return e.PeriodEnds[i].Source < e.PeriodEnds[j].Source
		})
	}

	return tl, nil
}
