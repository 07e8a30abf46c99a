package interval

import "fmt"

// Duration is the step of a rule: exactly one non-zero ISO 8601 duration
// component.
type Duration struct {
	Unit      Unit
	Magnitude int
}

// String renders the duration as an ISO 8601 duration string.
func (d Duration) String() string {
	if d.Unit.IsTime() {
		return fmt.Sprintf("PT%d%s", d.Magnitude, d.Unit.designator())
	}
	return fmt.Sprintf("P%d%s", d.Magnitude, d.Unit.designator())
}

// Rule is a decoded retention rule. One rule is one retention tier: "keep
// the first backup of every parent in each period of this duration, for this
// many repetitions". Rules are immutable after decoding.
type Rule struct {
	// Source is the original rule string, upcased. It doubles as the
	// rule's identity: two rules with the same source are the same tier.
	Source string

	// Count is the number of repetitions for finite rules. Zero is legal
	// and yields a rule with an end boundary but no periods.
	Count int

	// Infinite marks a rule that repeats without bound ("R/..."). The
	// boundary consumer caps such rules at the oldest known backup.
	Infinite bool

	// Duration is the period step.
	Duration Duration

	// Resolution is the rule's smallest increment; it selects the period
	// anchor the boundary generator starts from.
	Resolution Resolution
}

// String returns the rule's source text.
func (r *Rule) String() string {
	return r.Source
}

// Sources returns the source strings of a rule list, in order.
func Sources(rules []*Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Source)
	}
	return out
}
