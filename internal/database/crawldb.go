package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fedicensus/fedicensus/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl run history.
// It manages connection pooling and provides methods for saving and
// querying past crawl reports.
//
// Design decision: one database file holds all runs rather than one file
// per run. That keeps history queries and run-to-run diffs simple.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "fedicensus.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses its own connection string format: mode=rw
	// prevents creating new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Crawl runs store one row per crawl invocation plus the full report.
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		interrupted INTEGER NOT NULL DEFAULT 0,
		crawled_instances INTEGER NOT NULL,
		failed_instances INTEGER NOT NULL,
		total_users INTEGER NOT NULL,
		users_active_month INTEGER NOT NULL,
		posts INTEGER NOT NULL,
		comments INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Per-instance rows support run-to-run diffs without decoding reports.
	CREATE TABLE IF NOT EXISTS run_instances (
		run_id TEXT NOT NULL REFERENCES crawl_runs(id),
		domain TEXT NOT NULL,
		name TEXT,
		software TEXT,
		version TEXT,
		total_users INTEGER NOT NULL,
		users_active_month INTEGER NOT NULL,
		posts INTEGER NOT NULL,
		comments INTEGER NOT NULL,
		PRIMARY KEY (run_id, domain)
	);

	CREATE INDEX IF NOT EXISTS idx_run_instances_domain ON run_instances(domain);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a crawl report and returns the run ID assigned to it.
// The run row and its per-instance rows are written in one transaction.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.Report) (string, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	runID := uuid.NewString()

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
	INSERT INTO crawl_runs
		(id, started_at, finished_at, interrupted, crawled_instances,
		 failed_instances, total_users, users_active_month, posts, comments, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		report.StartTime.UTC().Format(time.RFC3339),
		report.EndTime.UTC().Format(time.RFC3339),
		report.Interrupted,
		report.CrawledInstances,
		len(report.FailedInstances),
		report.TotalUsers,
		report.UsersActiveMonth,
		report.Posts,
		report.Comments,
		string(reportJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert crawl run: %w", err)
	}

	for _, inst := range report.InstanceDetails {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO run_instances
			(run_id, domain, name, software, version, total_users, users_active_month, posts, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			inst.Domain.String(),
			inst.Name,
			inst.Software,
			inst.Version,
			inst.TotalUsers,
			inst.UsersActiveMonth,
			inst.Posts,
			inst.Comments,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert instance row for %s: %w", inst.Domain, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit crawl run: %w", err)
	}
	return runID, nil
}

// RunMetadata contains summary information about a stored crawl run.
// This is used for displaying run history without loading full reports.
type RunMetadata struct {
	// ID is the unique identifier of the run.
	ID string

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// FinishedAt is when the crawl finished or was interrupted.
	FinishedAt time.Time

	// Interrupted reports whether the crawl was cut short.
	Interrupted bool

	// CrawledInstances is the number of successfully fetched instances.
	CrawledInstances int

	// FailedInstances is the number of failed fetches.
	FailedInstances int

	// TotalUsers is the network-wide user total of the run.
	TotalUsers int64

	// UsersActiveMonth is the network-wide monthly-active total of the run.
	UsersActiveMonth int64
}

// ListRuns returns metadata for all stored runs, newest first.
func (cdb *CrawlDB) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, interrupted,
	       crawled_instances, failed_instances, total_users, users_active_month
	FROM crawl_runs
	ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var started, finished string

		err := rows.Scan(
			&meta.ID,
			&started,
			&finished,
			&meta.Interrupted,
			&meta.CrawledInstances,
			&meta.FailedInstances,
			&meta.TotalUsers,
			&meta.UsersActiveMonth,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(started)
		meta.FinishedAt = parseTimestamp(finished)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRunReport retrieves the full report of a run by its ID.
// A missing run returns a nil report and no error.
func (cdb *CrawlDB) GetRunReport(ctx context.Context, runID string) (*model.Report, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM crawl_runs WHERE id = ?`, runID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &report, nil
}

// LatestRunIDs returns the IDs of the n most recent runs, newest first.
func (cdb *CrawlDB) LatestRunIDs(ctx context.Context, n int) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT id FROM crawl_runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InstanceHistory is one run's observation of a single instance.
type InstanceHistory struct {
	// RunID identifies the run the observation belongs to.
	RunID string

	// StartedAt is when that run began.
	StartedAt time.Time

	// TotalUsers is the instance's user count at the time of the run.
	TotalUsers int64

	// UsersActiveMonth is the instance's monthly-active count at the time.
	UsersActiveMonth int64
}

// GetInstanceHistory returns every stored observation of a domain,
// oldest first.
func (cdb *CrawlDB) GetInstanceHistory(ctx context.Context, domain string) ([]InstanceHistory, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT ri.run_id, cr.started_at, ri.total_users, ri.users_active_month
	FROM run_instances ri
	JOIN crawl_runs cr ON cr.id = ri.run_id
	WHERE ri.domain = ?
	ORDER BY cr.started_at ASC
	`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to query instance history: %w", err)
	}
	defer rows.Close()

	var results []InstanceHistory
	for rows.Next() {
		var h InstanceHistory
		var started string
		if err := rows.Scan(&h.RunID, &started, &h.TotalUsers, &h.UsersActiveMonth); err != nil {
			return nil, fmt.Errorf("failed to scan instance history: %w", err)
		}
		h.StartedAt = parseTimestamp(started)
		results = append(results, h)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // our own insert format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
