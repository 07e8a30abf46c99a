package period

import (
	"time"

	"cloudkeep/janus/pkg/interval"
)

// Sequence enumerates one rule's period boundaries in strictly descending
// order. The first boundary is the rule's end (the start of the current
// period, which acts as "now" for the rule); each subsequent boundary is
// one duration earlier and marks a period start.
//
// For a finite rule the sequence is exactly count+1 boundaries long. For an
// infinite rule Next never reports exhaustion; the caller must stop
// consuming, normally at the oldest known backup timestamp (see Boundaries).
type Sequence struct {
	rule    *interval.Rule
	next    time.Time
	emitted int
	valid   bool
}

// NewSequence positions a sequence at a rule's end boundary. A rule whose
// resolution has no anchor yields an empty, already-exhausted sequence.
func NewSequence(rule *interval.Rule, anchors Anchors) *Sequence {
	if rule == nil {
		return &Sequence{}
	}
	start, ok := anchors.Start(rule.Resolution)
	if !ok {
		return &Sequence{}
	}
	return &Sequence{rule: rule, next: start, valid: true}
}

// Next returns the next boundary, descending. The second return is false
// once a finite rule has produced all count+1 boundaries; it is never false
// for an infinite rule.
func (s *Sequence) Next() (time.Time, bool) {
	if !s.valid {
		return time.Time{}, false
	}
	if !s.rule.Infinite && s.emitted > s.rule.Count {
		return time.Time{}, false
	}
	t := s.next
	s.next = stepBack(s.next, s.rule.Duration)
	s.emitted++
	return t, true
}

// Boundaries collects a rule's boundary sequence, capping at the floor: the
// first boundary at or before the floor is still emitted (the period
// covering the oldest backup needs its begin fencepost), then consumption
// stops. This is what makes infinite rules terminate.
func Boundaries(rule *interval.Rule, anchors Anchors, floor time.Time) []time.Time {
	seq := NewSequence(rule, anchors)
	var out []time.Time
	for {
		t, ok := seq.Next()
		if !ok {
			return out
		}
		out = append(out, t)
		// The first boundary is the rule's end, not a period start; the
		// floor only caps the starts that follow it.
		if len(out) > 1 && !t.After(floor) {
			return out
		}
	}
}

// stepBack moves a boundary one duration earlier. Date units step in the
// boundary's own location so month lengths and DST transitions follow the
// local calendar; clock units step by absolute duration.
func stepBack(t time.Time, d interval.Duration) time.Time {
	switch d.Unit {
	case interval.UnitYear:
		return t.AddDate(-d.Magnitude, 0, 0)
	case interval.UnitMonth:
		return t.AddDate(0, -d.Magnitude, 0)
	case interval.UnitWeek:
		return t.AddDate(0, 0, -7*d.Magnitude)
	case interval.UnitDay:
		return t.AddDate(0, 0, -d.Magnitude)
	case interval.UnitHour:
		return t.Add(-time.Duration(d.Magnitude) * time.Hour)
	case interval.UnitMinute:
		return t.Add(-time.Duration(d.Magnitude) * time.Minute)
	default:
		return t
	}
}
