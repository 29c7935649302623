package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/colortag/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "colortag.db"

// ResultDB provides SQLite-based storage for run history.
type ResultDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ResultDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ResultDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *ResultDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *ResultDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ResultDB) createTables() error {
	schema := `
	-- One row per batch run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		interrupted INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Classified rows
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		row_index INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		name TEXT,
		image_url TEXT,
		label TEXT NOT NULL,
		entry_name TEXT,
		dominant TEXT,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		digest TEXT,
		processed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_identifier ON results(identifier);
	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_digest ON results(digest);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored batch run.
type RunRecord struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	Input       string
	Output      string
	Total       int
	Processed   int
	Succeeded   int
	Failed      int
	Skipped     int
	Interrupted bool
}

// ResultRecord is a stored row classification.
type ResultRecord struct {
	ID          int64
	RunID       int64
	Index       int
	Identifier  string
	Name        string
	ImageURL    string
	Label       string
	EntryName   string
	Dominant    string
	Failed      bool
	Error       string
	Digest      string
	ProcessedAt time.Time
}

// BeginRun records the start of a run and returns its ID.
func (rdb *ResultDB) BeginRun(ctx context.Context, input, output string, total int, startedAt time.Time) (int64, error) {
	query := `
	INSERT INTO runs (started_at, input, output, total)
	VALUES (?, ?, ?, ?)
	`

	res, err := rdb.db.ExecContext(ctx, query, formatTimestamp(startedAt), input, output, total)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// SaveResult stores one classified row for a run.
func (rdb *ResultDB) SaveResult(ctx context.Context, runID int64, r model.Result) error {
	query := `
	INSERT INTO results (run_id, row_index, identifier, name, image_url, label, entry_name, dominant, failed, error, digest, processed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := rdb.db.ExecContext(ctx, query,
		runID,
		r.Index,
		r.Identifier,
		r.Name,
		r.ImageURL,
		r.Label,
		r.EntryName,
		r.DominantHex(),
		r.Failed,
		r.Error,
		r.Digest,
		formatTimestamp(r.ProcessedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (rdb *ResultDB) FinishRun(ctx context.Context, runID int64, summary *model.Summary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	query := `
	UPDATE runs SET
		finished_at = ?,
		processed = ?,
		succeeded = ?,
		failed = ?,
		skipped = ?,
		interrupted = ?,
		summary_json = ?
	WHERE id = ?
	`

	_, err = rdb.db.ExecContext(ctx, query,
		formatTimestamp(summary.StartedAt.Add(summary.Elapsed)),
		summary.Processed,
		summary.Succeeded,
		summary.Failed,
		summary.Skipped,
		summary.Interrupted,
		string(summaryJSON),
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (rdb *ResultDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, COALESCE(finished_at, ''), input, output, total, processed, succeeded, failed, skipped, interrupted
	FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var started, finished string
		if err := rows.Scan(
			&run.ID,
			&started,
			&finished,
			&run.Input,
			&run.Output,
			&run.Total,
			&run.Processed,
			&run.Succeeded,
			&run.Failed,
			&run.Skipped,
			&run.Interrupted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRunSummary returns the stored summary of a run, or nil when the run
// does not exist or has not finished.
func (rdb *ResultDB) GetRunSummary(ctx context.Context, runID int64) (*model.Summary, error) {
	var summaryJSON sql.NullString
	err := rdb.db.QueryRowContext(ctx, "SELECT summary_json FROM runs WHERE id = ?", runID).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !summaryJSON.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}

	var summary model.Summary
	if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &summary, nil
}

// History returns every stored classification of identifier, newest first.
func (rdb *ResultDB) History(ctx context.Context, identifier string) ([]ResultRecord, error) {
	query := `
	SELECT id, run_id, row_index, identifier, COALESCE(name, ''), COALESCE(image_url, ''), label,
		COALESCE(entry_name, ''), COALESCE(dominant, ''), failed, COALESCE(error, ''), COALESCE(digest, ''), processed_at
	FROM results
	WHERE identifier = ?
	ORDER BY id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		var processed string
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Index,
			&rec.Identifier,
			&rec.Name,
			&rec.ImageURL,
			&rec.Label,
			&rec.EntryName,
			&rec.Dominant,
			&rec.Failed,
			&rec.Error,
			&rec.Digest,
			&processed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		rec.ProcessedAt = parseTimestamp(processed)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// formatTimestamp stores times in UTC RFC3339 with nanoseconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
