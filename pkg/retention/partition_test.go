package retention

import (
	"testing"
	"time"

	"cloudkeep/janus/pkg/backup"
	"cloudkeep/janus/pkg/interval"
	"cloudkeep/janus/pkg/period"
)

// now is 2025-06-18T14:36:52 UTC, a Wednesday.
var now = time.Date(2025, time.June, 18, 14, 36, 52, 0, time.UTC)

func rec(parentID, backupID string, createdAt time.Time) backup.Record {
	return backup.Record{
		Identity: backup.Identity{
			Region:   "us-east-1",
			Service:  backup.ServiceEC2,
			ParentID: parentID,
			BackupID: backupID,
		},
		CreatedAt: createdAt,
		Tags:      map[string]string{},
	}
}

func rules(t *testing.T, sources ...string) []*interval.Rule {
	t.Helper()
	parsed, errs := interval.ParseAll(sources)
	if len(errs) > 0 {
		t.Fatalf("ParseAll(%v) rejected: %v", sources, errs[0])
	}
	return parsed
}

func classify(t *testing.T, backups []backup.Record, sources ...string) map[string]Decision {
	t.Helper()
	tl, err := Build(backups, rules(t, sources...), period.Compute(now, time.UTC))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	byID := make(map[string]Decision)
	for _, d := range Partition(tl) {
		byID[d.Record.Identity.BackupID] = d
	}
	if len(byID) != len(backups) {
		t.Fatalf("decided %d backups, want %d", len(byID), len(backups))
	}
	return byID
}

func wantOutcome(t *testing.T, decisions map[string]Decision, backupID string, want Outcome) {
	t.Helper()
	d, ok := decisions[backupID]
	if !ok {
		t.Fatalf("no decision for %s", backupID)
	}
	if d.Outcome != want {
		t.Errorf("%s: outcome = %s (reason %s), want %s", backupID, d.Outcome, d.Reason, want)
	}
}

func TestPartition_SingleTier(t *testing.T) {
	// One backup per day for four days: each day's only backup is the
	// first of its period, nothing is deleted. Day 0 falls inside the
	// current (unjudged) period and is kept by the horizon rule.
	day := time.Date(2025, time.June, 18, 3, 10, 0, 0, time.UTC)
	backups := []backup.Record{
		rec("vol-1", "snap-0", day),
		rec("vol-1", "snap-1", day.AddDate(0, 0, -1)),
		rec("vol-1", "snap-2", day.AddDate(0, 0, -2)),
		rec("vol-1", "snap-3", day.AddDate(0, 0, -3)),
	}

	decisions := classify(t, backups, "R3/P1D")
	for _, id := range []string{"snap-0", "snap-1", "snap-2", "snap-3"} {
		wantOutcome(t, decisions, id, OutcomeKeep)
	}
	if decisions["snap-0"].Reason != ReasonWithinHorizon {
		t.Errorf("snap-0 reason = %s, want %s", decisions["snap-0"].Reason, ReasonWithinHorizon)
	}
	if decisions["snap-1"].Reason != ReasonFirstInPeriod {
		t.Errorf("snap-1 reason = %s, want %s", decisions["snap-1"].Reason, ReasonFirstInPeriod)
	}
}

func TestPartition_SamePeriodDuplicates(t *testing.T) {
	// Two backups of the same parent 10 minutes apart within one daily
	// period: only the earlier one is kept.
	at := time.Date(2025, time.June, 16, 8, 10, 0, 0, time.UTC)
	backups := []backup.Record{
		rec("vol-1", "snap-a", at),
		rec("vol-1", "snap-b", at.Add(10*time.Minute)),
	}

	decisions := classify(t, backups, "R7/P1D")
	wantOutcome(t, decisions, "snap-a", OutcomeKeep)
	wantOutcome(t, decisions, "snap-b", OutcomeDelete)
	if decisions["snap-b"].Reason != ReasonSuperseded {
		t.Errorf("snap-b reason = %s, want %s", decisions["snap-b"].Reason, ReasonSuperseded)
	}
}

func TestPartition_SameBucketTieBreak(t *testing.T) {
	// Backups landing in the same 10-minute bucket are decided by
	// ascending backup ID: the smaller ID wins deterministically.
	at := time.Date(2025, time.June, 16, 8, 13, 0, 0, time.UTC)
	backups := []backup.Record{
		rec("vol-1", "snap-z", at.Add(2*time.Minute)),
		rec("vol-1", "snap-a", at.Add(5*time.Minute)),
	}

	decisions := classify(t, backups, "R7/P1D")
	wantOutcome(t, decisions, "snap-a", OutcomeKeep)
	wantOutcome(t, decisions, "snap-z", OutcomeDelete)
}

func TestPartition_MultiTierUnion(t *testing.T) {
	// Daily and weekly tiers are both open over Thursday June 12 (the
	// weekly period began Monday June 9). The first Thursday backup
	// satisfies both tiers at once but is kept exactly once; the second
	// is superseded in both; Friday's backup is kept by the daily tier
	// even though the weekly slot is already claimed.
	backups := []backup.Record{
		rec("vol-1", "snap-thu1", time.Date(2025, time.June, 12, 4, 0, 0, 0, time.UTC)),
		rec("vol-1", "snap-thu2", time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)),
		rec("vol-1", "snap-fri", time.Date(2025, time.June, 13, 4, 0, 0, 0, time.UTC)),
	}

	decisions := classify(t, backups, "R7/P1D", "R5/P1W")
	wantOutcome(t, decisions, "snap-thu1", OutcomeKeep)
	wantOutcome(t, decisions, "snap-thu2", OutcomeDelete)
	wantOutcome(t, decisions, "snap-fri", OutcomeKeep)

	keepCount := 0
	for _, d := range decisions {
		if d.Outcome == OutcomeKeep {
			keepCount++
		}
	}
	if keepCount != 2 {
		t.Errorf("kept %d backups, want 2 (union, not double-count)", keepCount)
	}
}

func TestPartition_HorizonProtection(t *testing.T) {
	// Duplicates inside the current period are all kept: the horizon has
	// not passed them yet, so no rule may judge them.
	at := time.Date(2025, time.June, 18, 2, 0, 0, 0, time.UTC)
	backups := []backup.Record{
		rec("vol-1", "snap-a", at),
		rec("vol-1", "snap-b", at.Add(10*time.Minute)),
		rec("vol-1", "snap-c", at.Add(20*time.Minute)),
		rec("vol-1", "snap-old", at.AddDate(0, 0, -2)),
	}

	decisions := classify(t, backups, "R7/P1D")
	for _, id := range []string{"snap-a", "snap-b", "snap-c"} {
		wantOutcome(t, decisions, id, OutcomeKeep)
		if decisions[id].Reason != ReasonWithinHorizon {
			t.Errorf("%s reason = %s, want %s", id, decisions[id].Reason, ReasonWithinHorizon)
		}
	}
	wantOutcome(t, decisions, "snap-old", OutcomeKeep)
}

func TestPartition_PerParentState(t *testing.T) {
	// Two parents backed up in the same period: each parent's first
	// backup is retained independently.
	at := time.Date(2025, time.June, 16, 8, 0, 0, 0, time.UTC)
	backups := []backup.Record{
		rec("vol-1", "snap-1a", at),
		rec("vol-1", "snap-1b", at.Add(time.Hour)),
		rec("vol-2", "snap-2a", at.Add(30*time.Minute)),
		rec("vol-2", "snap-2b", at.Add(2*time.Hour)),
	}

	decisions := classify(t, backups, "R7/P1D")
	wantOutcome(t, decisions, "snap-1a", OutcomeKeep)
	wantOutcome(t, decisions, "snap-1b", OutcomeDelete)
	wantOutcome(t, decisions, "snap-2a", OutcomeKeep)
	wantOutcome(t, decisions, "snap-2b", OutcomeDelete)
}

func TestPartition_PeriodReset(t *testing.T) {
	// The retained-parent set clears at every period start: one keep per
	// day, extra backups of the same day deleted, across several days.
	backups := []backup.Record{
		rec("vol-1", "snap-d2a", time.Date(2025, time.June, 16, 1, 0, 0, 0, time.UTC)),
		rec("vol-1", "snap-d2b", time.Date(2025, time.June, 16, 13, 0, 0, 0, time.UTC)),
		rec("vol-1", "snap-d1a", time.Date(2025, time.June, 17, 1, 0, 0, 0, time.UTC)),
		rec("vol-1", "snap-d1b", time.Date(2025, time.June, 17, 13, 0, 0, 0, time.UTC)),
	}

	decisions := classify(t, backups, "R7/P1D")
	wantOutcome(t, decisions, "snap-d2a", OutcomeKeep)
	wantOutcome(t, decisions, "snap-d2b", OutcomeDelete)
	wantOutcome(t, decisions, "snap-d1a", OutcomeKeep)
	wantOutcome(t, decisions, "snap-d1b", OutcomeDelete)
}

func TestPartition_InfiniteRuleFloor(t *testing.T) {
	// An infinite monthly rule reaches back exactly to the oldest backup
	// and keeps the first backup of every month.
	backups := []backup.Record{
		rec("db-1", "snap-jun", time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)),
		rec("db-1", "snap-may", time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)),
		rec("db-1", "snap-may2", time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)),
		rec("db-1", "snap-jan", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)),
	}

	decisions := classify(t, backups, "R/P1M")
	wantOutcome(t, decisions, "snap-jun", OutcomeKeep)
	wantOutcome(t, decisions, "snap-may", OutcomeKeep)
	wantOutcome(t, decisions, "snap-may2", OutcomeDelete)
	wantOutcome(t, decisions, "snap-jan", OutcomeKeep)
}

func TestPartition_SevenDayScenario(t *testing.T) {
	// R7/P1D with one backup per day for days 0..7: days 1..7 each retain
	// their single backup, day 0 is kept by the horizon, nothing deleted.
	base := time.Date(2025, time.June, 18, 3, 10, 0, 0, time.UTC)
	var backups []backup.Record
	for d := 0; d <= 7; d++ {
		backups = append(backups, rec("vol-1", "snap-day"+string(rune('0'+d)), base.AddDate(0, 0, -d)))
	}

	decisions := classify(t, backups, "R7/P1D")
	for id, d := range decisions {
		if d.Outcome != OutcomeKeep {
			t.Errorf("%s: outcome = %s (reason %s), want keep", id, d.Outcome, d.Reason)
		}
	}
	if decisions["snap-day0"].Reason != ReasonWithinHorizon {
		t.Errorf("day 0 reason = %s, want %s", decisions["snap-day0"].Reason, ReasonWithinHorizon)
	}
}

func TestPartition_Idempotent(t *testing.T) {
	at := time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)
	backups := []backup.Record{
		rec("vol-1", "snap-a", at),
		rec("vol-1", "snap-b", at.Add(10*time.Minute)),
		rec("vol-2", "snap-c", at.AddDate(0, 0, -3)),
	}

	run := func() map[string]Decision {
		return classify(t, backups, "R7/P1D", "R5/P1W")
	}

	first := run()
	second := run()
	for id, d1 := range first {
		d2 := second[id]
		if d1.Outcome != d2.Outcome || d1.Reason != d2.Reason || d1.Rule != d2.Rule {
			t.Errorf("%s: decisions differ between runs: %+v vs %+v", id, d1, d2)
		}
	}
}

func TestPartition_DisjointSets(t *testing.T) {
	at := time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)
	backups := []backup.Record{
		rec("vol-1", "snap-a", at),
		rec("vol-1", "snap-b", at.Add(10*time.Minute)),
	}

	tl, err := Build(backups, rules(t, "R7/P1D"), period.Compute(now, time.UTC))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	Partition(tl)

	for _, e := range tl.Entries() {
		for _, kept := range e.KeepCandidates {
			if containsRecord(e.DeleteCandidates, kept) {
				t.Errorf("backup %s in both keep and delete sets at %v",
					kept.Identity.BackupID, e.At)
			}
		}
	}
}
