// Package history provides SQLite persistence for completed
// participation runs. It is an audit trail only: nothing here is read
// back when answering a query.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/expofind/internal/report"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Run is one recorded participation query.
type Run struct {
	RunID             string
	BusinessName      string
	NormalizedName    string
	Found             bool
	EventsScanned     int
	EventsWithMatches int
	EventsSource      string
	Summary           string
	CreatedAt         time.Time
}

// Open creates a Store at the given database path, creating the table
// if needed. ":memory:" is supported for tests.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		business_name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		found INTEGER NOT NULL,
		events_scanned INTEGER NOT NULL,
		events_with_matches INTEGER NOT NULL,
		events_source TEXT NOT NULL,
		summary TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_business ON runs(normalized_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record persists the summary row for a completed report.
func (s *Store) Record(rep *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, business_name, normalized_name, found, events_scanned, events_with_matches, events_source, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, rep.SearchContext.RunID, rep.BusinessName, rep.NormalizedBusinessName,
		boolToInt(rep.Found), rep.EventsScanned, rep.EventsWithMatches,
		rep.EventsSource, rep.Summary)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT run_id, business_name, normalized_name, found, events_scanned, events_with_matches, events_source, summary, created_at
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var found int
		if err := rows.Scan(&r.RunID, &r.BusinessName, &r.NormalizedName, &found,
			&r.EventsScanned, &r.EventsWithMatches, &r.EventsSource, &r.Summary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Found = found != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
