package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"kmzgen/internal/config"
	"kmzgen/internal/report"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users delete the database to adopt the new schema.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Record is one persisted run outcome.
type Record struct {
	ID           int64
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      report.Outcome
	Discovered   int
	Exported     int
	Failed       int
	Published    int
	ErrorMessage string
	Failures     []Failure
}

// Failure is a per-definition failure persisted with the run.
type Failure struct {
	Definition string `json:"definition"`
	Error      string `json:"error"`
}

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run log database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "runlog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun persists the outcome of a finished pipeline run.
func (s *Store) RecordRun(ctx context.Context, rep *report.RunReport) (int64, error) {
	failures := make([]Failure, 0, rep.Failed())
	for _, failure := range rep.Failures() {
		failures = append(failures, Failure{
			Definition: failure.Definition,
			Error:      failure.Err.Error(),
		})
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return 0, fmt.Errorf("marshal failures: %w", err)
	}

	errorMessage := ""
	if rep.FatalErr != nil {
		errorMessage = rep.FatalErr.Error()
	} else if first := rep.FirstFailure(); first != nil {
		errorMessage = first.Err.Error()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, started_at, finished_at, outcome,
            discovered, exported, failed, published,
            error_message, failures_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID,
		rep.StartedAt.UTC().Format(time.RFC3339Nano),
		rep.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(rep.Outcome()),
		rep.Discovered,
		rep.Succeeded(),
		rep.Failed(),
		rep.Published,
		errorMessage,
		string(failuresJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, started_at, finished_at, outcome,
                discovered, exported, failed, published,
                error_message, failures_json
         FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var record Record
	var startedAt, finishedAt, outcome, failuresJSON string
	if err := rows.Scan(
		&record.ID,
		&record.RunID,
		&startedAt,
		&finishedAt,
		&outcome,
		&record.Discovered,
		&record.Exported,
		&record.Failed,
		&record.Published,
		&record.ErrorMessage,
		&failuresJSON,
	); err != nil {
		return Record{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Record{}, fmt.Errorf("parse started_at: %w", err)
	}
	if record.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return Record{}, fmt.Errorf("parse finished_at: %w", err)
	}
	record.Outcome = report.Outcome(outcome)
	if err := json.Unmarshal([]byte(failuresJSON), &record.Failures); err != nil {
		return Record{}, fmt.Errorf("parse failures: %w", err)
	}
	return record, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
