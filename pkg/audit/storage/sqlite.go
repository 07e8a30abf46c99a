package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cloudkeep/janus/pkg/audit"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements audit.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database, initializes the schema and enables
// WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// StoreRun persists a run record.
func (s *SQLiteStorage) StoreRun(ctx context.Context, run *audit.RunRecord) error {
	regions, _ := json.Marshal(run.Regions)
	rules, _ := json.Marshal(run.Rules)
	rejected, _ := json.Marshal(run.RejectedRules)

	query := `
		INSERT INTO runs (
			id, started_at, finished_at,
			regions, rules, rejected_rules, dry_run,
			status, horizon,
			discovered, kept, deleted, mutations_applied, mutations_failed,
			error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var horizon interface{}
	if !run.Horizon.IsZero() {
		horizon = run.Horizon
	}
	var errVal interface{}
	if run.Error != "" {
		errVal = run.Error
	}

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt,
		string(regions), string(rules), string(rejected), run.DryRun,
		run.Status, horizon,
		run.Discovered, run.Kept, run.Deleted, run.MutationsApplied, run.MutationsFailed,
		errVal,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store_run", err)
	}
	return nil
}

// StoreDecisions persists a run's decision records in a single transaction.
func (s *SQLiteStorage) StoreDecisions(ctx context.Context, decisions []*audit.DecisionRecord) error {
	if len(decisions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return audit.NewStorageError("sqlite", "store_decisions", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decisions (
			id, run_id,
			region, service, parent_id, backup_id,
			created_at, decided_at,
			outcome, rule, reason,
			mutation_op, mutation_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return audit.NewStorageError("sqlite", "store_decisions", err)
	}
	defer stmt.Close()

	for _, d := range decisions {
		_, err := stmt.ExecContext(ctx,
			d.ID, d.RunID,
			d.Region, d.Service, d.ParentID, d.BackupID,
			d.CreatedAt, d.DecidedAt,
			d.Outcome, nullable(d.Rule), d.Reason,
			nullable(d.MutationOp), nullable(d.MutationError),
		)
		if err != nil {
			return audit.NewStorageError("sqlite", "store_decisions", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return audit.NewStorageError("sqlite", "store_decisions", err)
	}
	return nil
}

// Runs retrieves run records matching the query, newest first.
func (s *SQLiteStorage) Runs(ctx context.Context, query *audit.Query) ([]*audit.RunRecord, error) {
	sqlQuery := `
		SELECT id, started_at, finished_at,
			regions, rules, rejected_rules, dry_run,
			status, horizon,
			discovered, kept, deleted, mutations_applied, mutations_failed,
			error
		FROM runs
	`
	where, args := runFilters(query)
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}
	sqlQuery += " ORDER BY started_at DESC"
	sqlQuery += limitClause(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "runs", err)
	}
	defer rows.Close()

	var results []*audit.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "runs", err)
		}
		results = append(results, run)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "runs", err)
	}
	return results, nil
}

// Decisions retrieves decision records matching the query in ascending
// decided-at order.
func (s *SQLiteStorage) Decisions(ctx context.Context, query *audit.Query) ([]*audit.DecisionRecord, error) {
	sqlQuery := `
		SELECT id, run_id,
			region, service, parent_id, backup_id,
			created_at, decided_at,
			outcome, rule, reason,
			mutation_op, mutation_error
		FROM decisions
	`
	where, args := decisionFilters(query)
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}
	sqlQuery += " ORDER BY decided_at ASC, backup_id ASC"
	sqlQuery += limitClause(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "decisions", err)
	}
	defer rows.Close()

	var results []*audit.DecisionRecord
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "decisions", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "decisions", err)
	}
	return results, nil
}

// CountDecisions returns the number of matching decision records.
func (s *SQLiteStorage) CountDecisions(ctx context.Context, query *audit.Query) (int64, error) {
	sqlQuery := "SELECT COUNT(*) FROM decisions"
	where, args := decisionFilters(query)
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count_decisions", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	return nil
}

func runFilters(query *audit.Query) ([]string, []interface{}) {
	if query == nil {
		return nil, nil
	}
	var where []string
	var args []interface{}
	if query.RunID != "" {
		where = append(where, "id = ?")
		args = append(args, query.RunID)
	}
	if query.StartTime != nil {
		where = append(where, "started_at >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		where = append(where, "started_at <= ?")
		args = append(args, *query.EndTime)
	}
	return where, args
}

func decisionFilters(query *audit.Query) ([]string, []interface{}) {
	if query == nil {
		return nil, nil
	}
	var where []string
	var args []interface{}
	if query.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, query.RunID)
	}
	if query.Region != "" {
		where = append(where, "region = ?")
		args = append(args, query.Region)
	}
	if query.Service != "" {
		where = append(where, "service = ?")
		args = append(args, query.Service)
	}
	if query.ParentID != "" {
		where = append(where, "parent_id = ?")
		args = append(args, query.ParentID)
	}
	if query.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, query.Outcome)
	}
	if query.StartTime != nil {
		where = append(where, "decided_at >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		where = append(where, "decided_at <= ?")
		args = append(args, *query.EndTime)
	}
	return where, args
}

func limitClause(query *audit.Query) string {
	if query == nil || query.Limit <= 0 {
		return ""
	}
	clause := fmt.Sprintf(" LIMIT %d", query.Limit)
	if query.Offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", query.Offset)
	}
	return clause
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanRun(rows *sql.Rows) (*audit.RunRecord, error) {
	var run audit.RunRecord
	var regions, rules, rejected string
	var horizon sql.NullTime
	var errVal sql.NullString

	err := rows.Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt,
		&regions, &rules, &rejected, &run.DryRun,
		&run.Status, &horizon,
		&run.Discovered, &run.Kept, &run.Deleted, &run.MutationsApplied, &run.MutationsFailed,
		&errVal,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(regions), &run.Regions)
	json.Unmarshal([]byte(rules), &run.Rules)
	json.Unmarshal([]byte(rejected), &run.RejectedRules)
	if horizon.Valid {
		run.Horizon = horizon.Time
	}
	if errVal.Valid {
		run.Error = errVal.String
	}
	return &run, nil
}

func scanDecision(rows *sql.Rows) (*audit.DecisionRecord, error) {
	var d audit.DecisionRecord
	var rule, op, opErr sql.NullString

	err := rows.Scan(
		&d.ID, &d.RunID,
		&d.Region, &d.Service, &d.ParentID, &d.BackupID,
		&d.CreatedAt, &d.DecidedAt,
		&d.Outcome, &rule, &d.Reason,
		&op, &opErr,
	)
	if err != nil {
		return nil, err
	}

	if rule.Valid {
		d.Rule = rule.String
	}
	if op.Valid {
		d.MutationOp = op.String
	}
	if opErr.Valid {
		d.MutationError = opErr.String
	}
	return &d, nil
}
