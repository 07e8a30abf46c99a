// Package audit records retention runs and their per-backup decisions.
//
// A wrong classification has data-loss consequences one layer downstream,
// so every run stores an auditable trail: the rules it ran with (including
// the ones rejected at decode time), the horizon it computed, and one
// decision record per backup with the outcome, the crediting rule and any
// marker mutation attempted.
//
// Storage backends live in the storage subpackage; the in-memory backend is
// for tests, the SQLite backend for real deployments.
package audit
