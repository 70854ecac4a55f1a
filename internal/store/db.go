// Package store persists sessions, logged sets and per-exercise strength
// stats in SQLite. It is the set-logging collaborator of the engine.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps the SQLite connection
type DB struct {
	db     *sql.DB
	dbPath string
	clock  clock.Clock
}

// Open opens or creates the database at dbPath
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer; WAL still lets readers through
	db.SetMaxOpenConns(1)

	d := &DB{db: db, dbPath: dbPath, clock: clock.New()}

	if err := d.configurePragmas(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}
	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return d, nil
}

// DataDir returns the default data directory following the XDG layout
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "liftsession")
}

// DefaultDBPath returns the default database path
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "liftsession.db")
}

// SetClock replaces the clock used for session timestamps
func (d *DB) SetClock(c clock.Clock) {
	d.clock = c
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.dbPath
}

// Close closes the database connection
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func (d *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := d.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		plan_name TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT
	);

	CREATE TABLE IF NOT EXISTS logged_sets (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		log_id TEXT NOT NULL,
		block_id TEXT NOT NULL,
		block_type TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		set_number INTEGER NOT NULL,
		sub_index INTEGER NOT NULL,
		kind TEXT NOT NULL,
		weight REAL,
		reps INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		rounds INTEGER NOT NULL DEFAULT 0,
		logged_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS exercise_stats (
		exercise_id TEXT PRIMARY KEY,
		e1rm REAL NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logged_sets_session ON logged_sets(session_id);
	CREATE INDEX IF NOT EXISTS idx_logged_sets_exercise ON logged_sets(exercise_id, logged_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);
	`
	_, err := d.db.Exec(schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
