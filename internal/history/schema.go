// Package history provides SQLite-backed persistence for tracker runs and
// their assembled datasets.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	tracker        TEXT NOT NULL,
	started_at     DATETIME NOT NULL,
	window_start   TEXT NOT NULL,
	window_end     TEXT NOT NULL,
	vault_checksum TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_tracker ON runs(tracker, started_at DESC);

CREATE TABLE IF NOT EXISTS points (
	run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	query_id    INTEGER NOT NULL,
	query_type  TEXT NOT NULL,
	target      TEXT NOT NULL,
	time_valued INTEGER NOT NULL DEFAULT 0,
	date        TEXT NOT NULL,
	value       REAL,
	has_value   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_points_run ON points(run_id, query_id);
`

// DB wraps a sql.DB with history-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
