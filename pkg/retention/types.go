package retention

import (
	"time"

	"cloudkeep/janus/pkg/backup"
)

// Outcome is the classification of a single backup.
type Outcome string

const (
	// OutcomeKeep means the backup must be preserved.
	OutcomeKeep Outcome = "keep"
	// OutcomeDelete means the backup may be marked for deletion.
	OutcomeDelete Outcome = "delete"
)

// Decision reasons, reported for audit.
const (
	// ReasonFirstInPeriod: the backup is the first of its parent within an
	// open rule's current period.
	ReasonFirstInPeriod = "first-in-period"
	// ReasonWithinHorizon: the backup was created at or after the latest
	// rule end boundary and is too recent for any rule to have judged.
	ReasonWithinHorizon = "within-horizon"
	// ReasonSuperseded: every open rule already retained an earlier backup
	// of the same parent for its current period.
	ReasonSuperseded = "superseded"
)

// Decision is the classification of one backup, with enough context to be
// individually reported: a wrong decision here has data-loss consequences
// one layer downstream, so every decision is auditable.
type Decision struct {
	// Record is the backup being decided.
	Record *backup.Record `json:"record"`

	// At is the normalized timestamp the backup was decided at.
	At time.Time `json:"at"`

	// Outcome is keep or delete.
	Outcome Outcome `json:"outcome"`

	// Rule is the source string of the rule that retained the backup.
	// Empty for deletions and for horizon keeps.
	Rule string `json:"rule,omitempty"`

	// Reason records why the outcome was chosen.
	Reason string `json:"reason"`
}
