package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/doc-reviewer/internal/store"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path, creating parent
// directories as needed. Use ":memory:" for in-memory database (useful
// for testing).
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata about each lint run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		corpus_dir TEXT NOT NULL,
		git_branch TEXT,
		git_commit TEXT,
		config_hash TEXT NOT NULL,
		corpus_hash TEXT NOT NULL,
		document_count INTEGER NOT NULL,
		finding_count INTEGER NOT NULL,
		suppressed_count INTEGER NOT NULL,
		failed INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	-- Individual findings from each run
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		finding_id TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		file TEXT NOT NULL,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		rule TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		suggestion TEXT,
		suppressed INTEGER DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Accepted findings that future runs report as suppressed
	CREATE TABLE IF NOT EXISTS baseline (
		fingerprint TEXT PRIMARY KEY,
		file TEXT NOT NULL,
		rule TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		added_at INTEGER NOT NULL
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_fingerprint ON findings(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run and its findings in a single transaction.
func (s *Store) SaveRun(ctx context.Context, run store.Run, findings []store.FindingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `
		INSERT INTO runs (run_id, created_at, corpus_dir, git_branch, git_commit, config_hash, corpus_hash, document_count, finding_count, suppressed_count, failed, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	failed := 0
	if run.Failed {
		failed = 1
	}

	if _, err := tx.ExecContext(ctx, runQuery,
		run.RunID,
		run.CreatedAt.Unix(),
		run.CorpusDir,
		run.GitBranch,
		run.GitCommit,
		run.ConfigHash,
		run.CorpusHash,
		run.DocumentCount,
		run.FindingCount,
		run.SuppressedCount,
		failed,
		run.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (run_id, finding_id, fingerprint, file, line_start, line_end, rule, severity, message, suggestion, suppressed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, finding := range findings {
		suppressed := 0
		if finding.Suppressed {
			suppressed = 1
		}

		if _, err := stmt.ExecContext(ctx,
			run.RunID,
			finding.FindingID,
			finding.Fingerprint,
			finding.File,
			finding.LineStart,
			finding.LineEnd,
			finding.Rule,
			finding.Severity,
			finding.Message,
			finding.Suggestion,
			suppressed,
		); err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, created_at, corpus_dir, git_branch, git_commit, config_hash, corpus_hash, document_count, finding_count, suppressed_count, failed, duration_ms
		FROM runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// LatestRun retrieves the most recent run, if any.
func (s *Store) LatestRun(ctx context.Context) (store.Run, bool, error) {
	query := `
		SELECT run_id, created_at, corpus_dir, git_branch, git_commit, config_hash, corpus_hash, document_count, finding_count, suppressed_count, failed, duration_ms
		FROM runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1
	`

	run, err := scanRun(s.db.QueryRowContext(ctx, query))
	if err != nil {
		if err == sql.ErrNoRows {
			return store.Run{}, false, nil
		}
		return store.Run{}, false, fmt.Errorf("failed to get latest run: %w", err)
	}

	return run, true, nil
}

// LoadBaseline retrieves all accepted findings.
func (s *Store) LoadBaseline(ctx context.Context) ([]store.BaselineEntry, error) {
	query := `
		SELECT fingerprint, file, rule, severity, message, added_at
		FROM baseline
		ORDER BY fingerprint ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}
	defer rows.Close()

	var entries []store.BaselineEntry
	for rows.Next() {
		var entry store.BaselineEntry
		var addedAt int64

		if err := rows.Scan(
			&entry.Fingerprint,
			&entry.File,
			&entry.Rule,
			&entry.Severity,
			&entry.Message,
			&addedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan baseline entry: %w", err)
		}

		entry.AddedAt = time.Unix(addedAt, 0)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating baseline: %w", err)
	}

	return entries, nil
}

// ReplaceBaseline swaps the accepted findings for the given set in a
// single transaction.
func (s *Store) ReplaceBaseline(ctx context.Context, entries []store.BaselineEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline`); err != nil {
		return fmt.Errorf("failed to clear baseline: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO baseline (fingerprint, file, rule, severity, message, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			entry.Fingerprint,
			entry.File,
			entry.Rule,
			entry.Severity,
			entry.Message,
			entry.AddedAt.Unix(),
		); err != nil {
			return fmt.Errorf("failed to insert baseline entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ClearBaseline removes all accepted findings.
func (s *Store) ClearBaseline(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM baseline`); err != nil {
		return fmt.Errorf("failed to clear baseline: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (store.Run, error) {
	var run store.Run
	var createdAt int64
	var failed int
	var durationMS int64

	if err := row.Scan(
		&run.RunID,
		&createdAt,
		&run.CorpusDir,
		&run.GitBranch,
		&run.GitCommit,
		&run.ConfigHash,
		&run.CorpusHash,
		&run.DocumentCount,
		&run.FindingCount,
		&run.SuppressedCount,
		&failed,
		&durationMS,
	); err != nil {
		return store.Run{}, err
	}

	run.CreatedAt = time.Unix(createdAt, 0)
	run.Failed = failed != 0
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
