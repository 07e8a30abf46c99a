package retention

import (
	"sort"

	"cloudkeep/janus/pkg/backup"
)

// openRules tracks, for every rule whose period-start boundary has been
// passed and whose end has not, the parents that already had a backup
// retained in the rule's current period.
type openRules map[string]map[backup.ParentKey]struct{}

// sortedKeys returns the open rule sources in stable order, so the rule
// credited with retaining a backup does not depend on map iteration.
func (o openRules) sortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Partition walks the timeline in ascending time order and classifies every
// backup as keep or delete. The timeline's entries are updated in place
// (retained backups move from DeleteCandidates to KeepCandidates) and the
// full decision list is returned in classification order.
func Partition(tl *Timeline) []Decision {
	open := make(openRules)
	decisions := make([]Decision, 0, tl.Backups())

	for _, e := range tl.Entries() {
		if e.At.Before(tl.horizon) {
			decisions = partitionEntry(e, open, decisions)
			continue
		}

		// At or after the horizon: nothing has judged these backups yet,
		// keep them all.
		for _, rec := range e.DeleteCandidates {
			e.KeepCandidates = append(e.KeepCandidates, rec)
			decisions = append(decisions, Decision{
				Record:  rec,
				At:      e.At,
				Outcome: OutcomeKeep,
				Reason:  ReasonWithinHorizon,
			})
		}
		e.DeleteCandidates = nil
	}

	return decisions
}

// partitionEntry applies one timestamp's boundary events and classifies its
// backups against the currently open rules.
func partitionEntry(e *Entry, open openRules, decisions []Decision) []Decision {
	// A period start both opens a new rule and resets an open one: either
	// way no parent has a retained backup in the period beginning here.
	for _, rule := range e.PeriodStarts {
		open[rule.Source] = make(map[backup.ParentKey]struct{})
	}

	// A period end exhausts the rule's reach entirely.
	for _, rule := range e.PeriodEnds {
		delete(open, rule.Source)
	}

	ruleOrder := open.sortedKeys()

	kept := 0
	for _, rec := range e.DeleteCandidates {
		parent := rec.Identity.Parent()
		retainedBy := ""
		for _, source := range ruleOrder {
			parents := open[source]
			if _, ok := parents[parent]; ok {
				continue
			}
			// Claim the period's slot for this parent in every rule that
			// still has one, but keep the backup only once.
			parents[parent] = struct{}{}
			if retainedBy == "" {
				retainedBy = source
			}
		}

		if retainedBy != "" {
			e.KeepCandidates = append(e.KeepCandidates, rec)
			kept++
			decisions = append(decisions, Decision{
				Record:  rec,
				At:      e.At,
				Outcome: OutcomeKeep,
				Rule:    retainedBy,
				Reason:  ReasonFirstInPeriod,
			})
			continue
		}

		decisions = append(decisions, Decision{
			Record:  rec,
			At:      e.At,
			Outcome: OutcomeDelete,
			Reason:  ReasonSuperseded,
		})
	}

	// Subtract the keep side from the delete side. The loop above already
	// keeps the two disjoint; this guards regressions.
	if kept > 0 {
		remaining := e.DeleteCandidates[:0]
		for _, rec := range e.DeleteCandidates {
			if !containsRecord(e.KeepCandidates, rec) {
				remaining = append(remaining, rec)
			}
		}
		e.DeleteCandidates = remaining
	}

	return decisions
}

func containsRecord(records []*backup.Record, rec *backup.Record) bool {
	for _, r := range records {
		if r == rec {
			return true
		}
	}
	return false
}
