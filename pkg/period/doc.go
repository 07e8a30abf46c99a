// Package period turns decoded retention rules into concrete period
// boundaries anchored at a reference instant.
//
// The Anchors type computes, once per run, the start of the current period
// for every supported resolution: start of the current hour, ISO week,
// month, and so on. Boundaries are computed in the user's timezone so that
// "daily" means the user's calendar day, then compared as instants (cloud
// creation timestamps are UTC).
//
// The Sequence type walks one rule's boundaries backward from now: the
// first value is the rule's end boundary (the start of the current,
// still-unjudged period) and every following value is a period start, one
// duration earlier each time. A finite rule with count n yields exactly n+1
// boundaries, the fencepost pairs for n periods. An infinite rule never
// stops on its own; callers cap it with a floor, normally the oldest known
// backup timestamp.
package period
