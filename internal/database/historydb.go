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

	"github.com/nao1215/humantouch/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "humantouch.db"

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores the summaries of past normalization runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
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

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

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

	// mode=rw refuses to create a missing file. Foreign keys are enabled
	// per connection so that deleting a run deletes its file results.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := hdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	-- One row per run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		patterns TEXT NOT NULL,
		total_files INTEGER NOT NULL,
		changed_count INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		total_changes INTEGER NOT NULL,
		invisible_bidi INTEGER NOT NULL,
		smart_quotes_in_attribute INTEGER NOT NULL,
		consecutive_nbsp INTEGER NOT NULL,
		success INTEGER NOT NULL,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	-- One row per file of a run
	CREATE TABLE IF NOT EXISTS file_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		state TEXT NOT NULL,
		changes INTEGER NOT NULL,
		hazards INTEGER NOT NULL,
		error TEXT,
		original_digest TEXT,
		normalized_digest TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_file_results_path ON file_results(path);
	CREATE INDEX IF NOT EXISTS idx_file_results_run ON file_results(run_id);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// RunRecord is the stored metadata of one run.
type RunRecord struct {
	ID           int64         `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Elapsed      time.Duration `json:"elapsed"`
	Patterns     []string      `json:"patterns"`
	TotalFiles   int           `json:"total_files"`
	ChangedCount int           `json:"changed_count"`
	ErrorCount   int           `json:"error_count"`
	TotalChanges int           `json:"total_changes"`
	HazardTotal  int           `json:"hazard_total"`
	Success      bool          `json:"success"`
}

// FileRecord is the stored outcome of one file in one run.
type FileRecord struct {
	RunID            int64     `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	Path             string    `json:"path"`
	State            string    `json:"state"`
	Changes          int       `json:"changes"`
	Hazards          int       `json:"hazards"`
	Error            string    `json:"error,omitempty"`
	OriginalDigest   string    `json:"original_digest,omitempty"`
	NormalizedDigest string    `json:"normalized_digest,omitempty"`
}

// SaveRun stores a summary and its per-file results in one transaction
// and returns the new run ID.
func (h *HistoryDB) SaveRun(ctx context.Context, summary model.BatchSummary, patterns []string) (id int64, err error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}
	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize patterns: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	totals := summary.HazardTotals
	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, elapsed_ms, patterns, total_files, changed_count, error_count,
		total_changes, invisible_bidi, smart_quotes_in_attribute, consecutive_nbsp, success, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.Elapsed.Milliseconds(),
		string(patternsJSON),
		summary.TotalFiles,
		summary.ChangedCount,
		summary.ErrorCount,
		summary.TotalChanges,
		totals.InvisibleBidi,
		totals.SmartQuotesInAttribute,
		totals.ConsecutiveNBSP,
		summary.Success,
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO file_results (run_id, path, state, changes, hazards, error, original_digest, normalized_digest)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range summary.Results {
		if _, err = stmt.ExecContext(ctx, id, r.Path, r.State.String(), r.Changes, r.Hazards.Total(),
			r.Error, r.OriginalDigest, r.NormalizedDigest); err != nil {
			return 0, fmt.Errorf("failed to save result for %s: %w", r.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, started_at, elapsed_ms, patterns, total_files, changed_count, error_count, total_changes,
		invisible_bidi + smart_quotes_in_attribute + consecutive_nbsp, success
	FROM runs
	ORDER BY id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r         RunRecord
			startedAt string
			elapsedMS int64
			patterns  string
		)
		if err := rows.Scan(&r.ID, &startedAt, &elapsedMS, &patterns, &r.TotalFiles, &r.ChangedCount,
			&r.ErrorCount, &r.TotalChanges, &r.HazardTotal, &r.Success); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(patterns), &r.Patterns); err != nil {
			return nil, fmt.Errorf("failed to parse patterns of run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the full summary stored for a run.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.BatchSummary, error) {
	var summaryJSON string
	err := h.db.QueryRowContext(ctx, `SELECT summary_json FROM runs WHERE id = ?`, id).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var summary model.BatchSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &summary, nil
}

// FileHistory returns every stored result for path, most recent first.
func (h *HistoryDB) FileHistory(ctx context.Context, path string) ([]FileRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT f.run_id, r.started_at, f.path, f.state, f.changes, f.hazards,
		COALESCE(f.error, ''), COALESCE(f.original_digest, ''), COALESCE(f.normalized_digest, '')
	FROM file_results f
	JOIN runs r ON r.id = f.run_id
	WHERE f.path = ?
	ORDER BY f.run_id DESC
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file history: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var (
			rec       FileRecord
			startedAt string
		)
		if err := rows.Scan(&rec.RunID, &startedAt, &rec.Path, &rec.State, &rec.Changes, &rec.Hazards,
			&rec.Error, &rec.OriginalDigest, &rec.NormalizedDigest); err != nil {
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		rec.StartedAt = parseTimestamp(startedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneBefore deletes the runs started before t, with their file results,
// and returns the number of runs deleted.
func (h *HistoryDB) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`,
		t.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats contains the timestamp formats the database may hold.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with the first matching format, or returns the
// zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
