package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
const Schema = `
-- Retention runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,

    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,

    regions TEXT,
    rules TEXT,
    rejected_rules TEXT,
    dry_run BOOLEAN NOT NULL,

    status TEXT NOT NULL,
    horizon TIMESTAMP,

    discovered INTEGER NOT NULL,
    kept INTEGER NOT NULL,
    deleted INTEGER NOT NULL,
    mutations_applied INTEGER NOT NULL,
    mutations_failed INTEGER NOT NULL,

    error TEXT
);

-- Per-backup decisions
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id),

    region TEXT NOT NULL,
    service TEXT NOT NULL,
    parent_id TEXT NOT NULL,
    backup_id TEXT NOT NULL,

    created_at TIMESTAMP NOT NULL,
    decided_at TIMESTAMP NOT NULL,

    outcome TEXT NOT NULL,
    rule TEXT,
    reason TEXT NOT NULL,

    mutation_op TEXT,
    mutation_error TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_decisions_run_id ON decisions(run_id);
CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at);
CREATE INDEX IF NOT EXISTS idx_decisions_parent_id ON decisions(parent_id);
CREATE INDEX IF NOT EXISTS idx_decisions_outcome ON decisions(outcome);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
