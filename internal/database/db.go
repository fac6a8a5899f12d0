package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lance13c/lpqa/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

// DB represents the run history database
type DB struct {
	conn *sql.DB
}

// Run is one stored QA run
type Run struct {
	RunID           string
	URL             string
	TaskID          string
	StartedAt       time.Time
	RegistryVersion string
	Pass            int
	Fail            int
	Warn            int
	Skip            int
	Degraded        bool
}

// Statistics summarises the stored history
type Statistics struct {
	TotalRuns    int
	DistinctURLs int
	FailedRuns   int
	LastRun      *time.Time
}

// New opens (and creates if needed) the history database at dbPath
func New(dbPath string) (*DB, error) {
	// Create database directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.InitSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the database tables if they don't exist
func (db *DB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		task_id TEXT,
		started_at TIMESTAMP NOT NULL,
		registry_version TEXT NOT NULL,
		pass INTEGER NOT NULL,
		fail INTEGER NOT NULL,
		warn INTEGER NOT NULL,
		skip INTEGER NOT NULL,
		degraded BOOLEAN DEFAULT 0,
		report_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS check_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		check_id TEXT NOT NULL,
		status TEXT NOT NULL,
		skip_reason TEXT,
		message TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_results_run_id ON check_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_check_id ON check_results(check_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveReport stores a report and its per-check rows in one transaction
func (db *DB) SaveReport(r *types.QAReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, url, task_id, started_at, registry_version, pass, fail, warn, skip, degraded, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID,
		r.TargetURL,
		r.TaskID,
		r.Timestamp.UTC(),
		r.RegistryVersion,
		r.Summary.Pass,
		r.Summary.Fail,
		r.Summary.Warn,
		r.Summary.Skip,
		r.Degraded,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO check_results (run_id, check_id, status, skip_reason, message)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, res := range r.Results {
		if _, err := stmt.Exec(r.RunID, res.CheckID, string(res.Status), string(res.SkipReason), res.Message); err != nil {
			return fmt.Errorf("failed to save result %s: %w", res.CheckID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReport loads a stored report by run id
func (db *DB) GetReport(runID string) (*types.QAReport, error) {
	var data string
	err := db.conn.QueryRow(`SELECT report_json FROM runs WHERE run_id = ?`, runID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var r types.QAReport
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("failed to decode stored report: %w", err)
	}
	return &r, nil
}

// RecentRuns lists the newest runs, optionally for one URL only
func (db *DB) RecentRuns(url string, limit int) ([]Run, error) {
	query := `
		SELECT run_id, url, task_id, started_at, registry_version, pass, fail, warn, skip, degraded
		FROM runs
		WHERE (? = '' OR url = ?)
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := db.conn.Query(query, url, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var taskID sql.NullString
		err := rows.Scan(
			&run.RunID,
			&run.URL,
			&taskID,
			&run.StartedAt,
			&run.RegistryVersion,
			&run.Pass,
			&run.Fail,
			&run.Warn,
			&run.Skip,
			&run.Degraded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.TaskID = taskID.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// CheckHistory returns the statuses one check produced for url, newest first
func (db *DB) CheckHistory(url, checkID string, limit int) ([]types.Status, error) {
	query := `
		SELECT c.status
		FROM check_results c
		JOIN runs r ON r.run_id = c.run_id
		WHERE r.url = ? AND c.check_id = ?
		ORDER BY r.started_at DESC
		LIMIT ?
	`

	rows, err := db.conn.Query(query, url, checkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check history: %w", err)
	}
	defer rows.Close()

	var statuses []types.Status
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, types.Status(s))
	}
	return statuses, rows.Err()
}

// GetStatistics returns database statistics
func (db *DB) GetStatistics() (*Statistics, error) {
	var stats Statistics

	err := db.conn.QueryRow("SELECT COUNT(*), COUNT(DISTINCT url), COALESCE(SUM(CASE WHEN fail > 0 THEN 1 ELSE 0 END), 0) FROM runs").
		Scan(&stats.TotalRuns, &stats.DistinctURLs, &stats.FailedRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	if stats.TotalRuns > 0 {
		var last time.Time
		err = db.conn.QueryRow("SELECT started_at FROM runs ORDER BY started_at DESC LIMIT 1").Scan(&last)
		if err != nil {
			return nil, fmt.Errorf("failed to get last run: %w", err)
		}
		stats.LastRun = &last
	}

	return &stats, nil
}
