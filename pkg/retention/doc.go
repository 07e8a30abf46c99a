// Package retention classifies backups as keep or delete under a multi-tier
// interval retention policy.
//
// The engine works in two steps. Build merges every backup's normalized
// creation timestamp with every rule's period boundaries into a single
// chronological Timeline, and computes the run's horizon, the latest rule
// end boundary. Partition then walks the timeline oldest-first, maintaining
// for each open rule the set of parent resources that already had a backup
// retained in the rule's current period, and decides every backup exactly
// once:
//
//   - the first backup of a parent in any open rule's current period is kept,
//   - every other backup before the horizon is marked for deletion,
//   - everything at or after the horizon is kept outright (too recent for any
//     rule to have judged it).
//
// A backup satisfying several tiers at once is kept once, not once per tier.
// Backups of the same parent sharing one normalized timestamp are decided in
// ascending backup ID order, so runs are deterministic and repeatable.
//
// The engine is a pure, synchronous computation: it performs no I/O, blocks
// on nothing, and never mutates the discovered records.
package retention
