package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mdmirror/mdmirror/internal/model"
)

// DBFileName is the history database file name inside the data directory.
const DBFileName = "mdmirror.db"

// MirrorDB provides SQLite-based storage for mirror run history.
// One database file holds all runs across all sites; that keeps
// cross-site queries ("what did I mirror last week") trivial.
type MirrorDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures MirrorDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a MirrorDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned; the history subcommand uses that mode so it never
// creates an empty database just to report nothing.
func Open(dbDir string, opts Options) (*MirrorDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// modernc.org/sqlite DSN: mode=rw prevents creating new files,
	// mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports only one writer; multiple readers don't help a
	// CLI that runs one statement at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	mdb := &MirrorDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := mdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return mdb, nil
}

// Close closes the database connection.
func (mdb *MirrorDB) Close() error {
	return mdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (mdb *MirrorDB) createTables() error {
	schema := `
	-- One row per mirror run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		output_dir TEXT,
		depth INTEGER NOT NULL,
		parent_levels INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		page_count INTEGER NOT NULL,
		written_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per discovered page within a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		local_path TEXT,
		status TEXT NOT NULL,
		error TEXT,
		bytes INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := mdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord summarizes one stored mirror run.
type RunRecord struct {
	// ID is the run's database identifier.
	ID int64

	// Root is the canonical root URL the run started from.
	Root string

	// OutputDir is where files were written. Empty for listing-only runs.
	OutputDir string

	// Depth and ParentLevels are the crawl settings the run used.
	Depth        int
	ParentLevels int

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// PageCount, WrittenCount, and FailedCount summarize the outcome.
	PageCount    int
	WrittenCount int
	FailedCount  int
}

// PageRecord is one stored page outcome.
type PageRecord struct {
	URL       string
	LocalPath string
	Status    string
	Error     string
	Bytes     int
}

// SaveRun stores a completed mirror run with its per-page outcomes.
// The run and its pages are written in one transaction.
func (mdb *MirrorDB) SaveRun(ctx context.Context, run *model.MirrorRun) (int64, error) {
	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (root, output_dir, depth, parent_levels, started_at, finished_at, page_count, written_count, failed_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Root,
		run.OutputDir,
		run.Depth,
		run.ParentLevels,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		len(run.Pages),
		run.WrittenCount(),
		run.FailedCount(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (run_id, url, local_path, status, error, bytes)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range run.Pages {
		if _, err := stmt.ExecContext(ctx, runID, p.URL, p.LocalPath, string(p.Status), p.Error, p.Bytes); err != nil {
			return 0, fmt.Errorf("insert page %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return runID, nil
}

// ListRuns returns stored runs, newest first. If root is non-empty,
// only runs for that root are returned. limit <= 0 means no limit.
func (mdb *MirrorDB) ListRuns(ctx context.Context, root string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, root, output_dir, depth, parent_levels, started_at, finished_at, page_count, written_count, failed_count
	FROM runs
	`
	args := make([]any, 0, 2)

	if root != "" {
		query += " WHERE root = ?"
		args = append(args, root)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := mdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string

		if err := rows.Scan(
			&rec.ID,
			&rec.Root,
			&rec.OutputDir,
			&rec.Depth,
			&rec.ParentLevels,
			&started,
			&finished,
			&rec.PageCount,
			&rec.WrittenCount,
			&rec.FailedCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// LatestRun returns the most recent run for the given root, or nil if
// none has been recorded.
func (mdb *MirrorDB) LatestRun(ctx context.Context, root string) (*RunRecord, error) {
	runs, err := mdb.ListRuns(ctx, root, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RunPages returns the per-page outcomes for a run in insertion order,
// which matches the run's first-seen page order.
func (mdb *MirrorDB) RunPages(ctx context.Context, runID int64) ([]PageRecord, error) {
	rows, err := mdb.db.QueryContext(ctx, `
		SELECT url, local_path, status, error, bytes
		FROM pages
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run pages: %w", err)
	}
	defer rows.Close()

	var results []PageRecord
	for rows.Next() {
		var rec PageRecord
		var localPath, errMsg sql.NullString

		if err := rows.Scan(&rec.URL, &localPath, &rec.Status, &errMsg, &rec.Bytes); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		rec.LocalPath = localPath.String
		rec.Error = errMsg.String
		results = append(results, rec)
	}

	return results, rows.Err()
}

// GetRun returns the run with the given ID, or nil if it doesn't exist.
func (mdb *MirrorDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	var rec RunRecord
	var started, finished string

	err := mdb.db.QueryRowContext(ctx, `
		SELECT id, root, output_dir, depth, parent_levels, started_at, finished_at, page_count, written_count, failed_count
		FROM runs
		WHERE id = ?`, id).Scan(
		&rec.ID,
		&rec.Root,
		&rec.OutputDir,
		&rec.Depth,
		&rec.ParentLevels,
		&started,
		&finished,
		&rec.PageCount,
		&rec.WrittenCount,
		&rec.FailedCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rec.StartedAt = parseTimestamp(started)
	rec.FinishedAt = parseTimestamp(finished)
	return &rec, nil
}

// MirroredRoots returns the distinct roots present in the history,
// sorted alphabetically.
func (mdb *MirrorDB) MirroredRoots(ctx context.Context) ([]string, error) {
	rows, err := mdb.db.QueryContext(ctx, `SELECT DISTINCT root FROM runs ORDER BY root`)
	if err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, fmt.Errorf("scan root: %w", err)
		}
		roots = append(roots, root)
	}

	return roots, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may
// return. More specific formats come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. Returns zero time when nothing matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
