// Package store handles SQLite persistence.
package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a drill or session does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for drills and sessions.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS drills (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS drill_targets (
			drill_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			distance REAL NOT NULL,
			target_type TEXT NOT NULL,
			shooting_position TEXT NOT NULL,
			shots INTEGER NOT NULL,
			size TEXT NOT NULL,
			size_cm REAL NOT NULL,
			PRIMARY KEY (drill_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			shooter TEXT NOT NULL,
			mode TEXT NOT NULL,
			drill_name TEXT NOT NULL,
			drill_id TEXT NOT NULL,
			with_vest INTEGER NOT NULL,
			with_run INTEGER NOT NULL,
			reload_after INTEGER,
			started_at TEXT NOT NULL,
			target_count INTEGER NOT NULL,
			hit_count INTEGER NOT NULL,
			total_ns INTEGER NOT NULL,
			time_to_line_ns INTEGER,
			reload_ns INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS session_shots (
			session_id INTEGER NOT NULL,
			shot INTEGER NOT NULL,
			distance REAL NOT NULL,
			target_type TEXT NOT NULL,
			stance TEXT NOT NULL,
			size TEXT NOT NULL,
			size_cm REAL NOT NULL,
			result TEXT NOT NULL,
			split_ns INTEGER NOT NULL,
			PRIMARY KEY (session_id, shot)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_shooter ON sessions(shooter);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// timeLayout keeps all nine fractional digits so stored strings sort in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func rollback(tx *sql.Tx) {
	if rerr := tx.Rollback(); rerr != nil {
		// Best-effort rollback.
		_ = rerr
	}
}
