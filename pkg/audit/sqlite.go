package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// sqliteSchema holds the execution audit table. Durations are stored in
// microseconds; timestamps as RFC 3339 text so the cutoff comparison in
// DeleteBefore works lexically.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS executions (
    id            TEXT PRIMARY KEY,
    session_id    TEXT NOT NULL,
    ruleset       TEXT NOT NULL,
    strategy      TEXT NOT NULL,
    fact_count    INTEGER NOT NULL,
    result_count  INTEGER NOT NULL,
    matched_rules TEXT NOT NULL,
    rule_errors   TEXT NOT NULL,
    duration_us   INTEGER NOT NULL,
    started_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_started_at ON executions(started_at);
CREATE INDEX IF NOT EXISTS idx_executions_ruleset ON executions(ruleset);
`

// SQLiteConfig configures the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the connection pool size. Default: 10.
	MaxOpenConns int

	// BusyTimeout is how long to wait on a locked database. Default: 5s.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage over a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if necessary) the audit database and
// initializes its schema. WAL mode is enabled for concurrent readers.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database %q: %w", config.Path, err)
	}
	maxConns := config.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)

	s := &SQLiteStorage{
		db:     db,
		logger: slog.Default().With("component", "audit.sqlite"),
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	busyTimeout := config.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	s.logger.Info("audit storage initialized", "path", config.Path)
	return s, nil
}

// Write persists one record.
func (s *SQLiteStorage) Write(ctx context.Context, record *Record) error {
	matched, err := json.Marshal(record.MatchedRules)
	if err != nil {
		return fmt.Errorf("failed to encode matched rules: %w", err)
	}
	failures, err := json.Marshal(record.RuleErrors)
	if err != nil {
		return fmt.Errorf("failed to encode rule errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO executions
		 (id, session_id, ruleset, strategy, fact_count, result_count, matched_rules, rule_errors, duration_us, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SessionID,
		record.RuleSet,
		record.Strategy,
		record.FactCount,
		record.ResultCount,
		string(matched),
		string(failures),
		record.Duration.Microseconds(),
		record.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write audit record %s: %w", record.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStorage) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, ruleset, strategy, fact_count, result_count, matched_rules, rule_errors, duration_us, started_at
		 FROM executions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			record     Record
			matched    string
			failures   string
			durationUS int64
			startedAt  string
		)
		if err := rows.Scan(
			&record.ID, &record.SessionID, &record.RuleSet, &record.Strategy,
			&record.FactCount, &record.ResultCount, &matched, &failures,
			&durationUS, &startedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if err := json.Unmarshal([]byte(matched), &record.MatchedRules); err != nil {
			return nil, fmt.Errorf("failed to decode matched rules for %s: %w", record.ID, err)
		}
		if err := json.Unmarshal([]byte(failures), &record.RuleErrors); err != nil {
			return nil, fmt.Errorf("failed to decode rule errors for %s: %w", record.ID, err)
		}
		record.Duration = time.Duration(durationUS) * time.Microsecond
		ts, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp for %s: %w", record.ID, err)
		}
		record.StartedAt = ts
		records = append(records, &record)
	}
	return records, rows.Err()
}

// DeleteBefore removes records that started before the cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM executions WHERE started_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
