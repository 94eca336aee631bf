package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/engine"
)

// dateLayout is the canonical on-disk date key, independent of each
// tracker's display format.
const dateLayout = "2006-01-02"

// Run is one persisted aggregation run.
type Run struct {
	ID            int64     `json:"id"`
	Tracker       string    `json:"tracker"`
	StartedAt     time.Time `json:"started_at"`
	WindowStart   string    `json:"window_start"`
	WindowEnd     string    `json:"window_end"`
	VaultChecksum string    `json:"vault_checksum"`
}

// SeriesPoint is one day of one stored dataset. Value is nil for gap days.
type SeriesPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// Series is one stored dataset of a run.
type Series struct {
	QueryID    int           `json:"query_id"`
	QueryType  string        `json:"query_type"`
	Target     string        `json:"target"`
	TimeValued bool          `json:"time_valued"`
	Points     []SeriesPoint `json:"points"`
}

// InsertRun stores a run and every point of its datasets in one transaction,
// returning the new run id.
func (db *DB) InsertRun(run Run, datasets []engine.Dataset) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO runs (tracker, started_at, window_start, window_end, vault_checksum)
		VALUES (?, ?, ?, ?, ?)
	`, run.Tracker, run.StartedAt, run.WindowStart, run.WindowEnd, run.VaultChecksum)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO points (run_id, query_id, query_type, target, time_valued, date, value, has_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("history: prepare point insert: %w", err)
	}
	defer stmt.Close()

	for _, ds := range datasets {
		for _, p := range ds.Points {
			var value any
			if p.Valid {
				value = p.Value
			}
			if _, err := stmt.Exec(runID, ds.Query.ID, ds.Query.Type.String(), ds.Query.Target,
				ds.UsingTimeValue, p.Date.Format(dateLayout), value, p.Valid); err != nil {
				return 0, fmt.Errorf("history: insert point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return runID, nil
}

// LatestRun returns the most recent run for a tracker, or nil when none
// exists.
func (db *DB) LatestRun(tracker string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, tracker, started_at, window_start, window_end, vault_checksum
		FROM runs WHERE tracker = ?
		ORDER BY started_at DESC, id DESC LIMIT 1
	`, tracker)
	var r Run
	err := row.Scan(&r.ID, &r.Tracker, &r.StartedAt, &r.WindowStart, &r.WindowEnd, &r.VaultChecksum)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: latest run: %w", err)
	}
	return &r, nil
}

// ListRuns returns up to limit runs for a tracker, newest first.
func (db *DB) ListRuns(tracker string, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, tracker, started_at, window_start, window_end, vault_checksum
		FROM runs WHERE tracker = ?
		ORDER BY started_at DESC, id DESC LIMIT ?
	`, tracker, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Tracker, &r.StartedAt, &r.WindowStart, &r.WindowEnd, &r.VaultChecksum); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunSeries loads the stored datasets of one run, grouped by query in
// query-id order, points in date order.
func (db *DB) RunSeries(runID int64) ([]Series, error) {
	rows, err := db.conn.Query(`
		SELECT query_id, query_type, target, time_valued, date, value, has_value
		FROM points WHERE run_id = ?
		ORDER BY query_id, date
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: run series: %w", err)
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		var (
			queryID    int
			queryType  string
			target     string
			timeValued bool
			date       string
			value      sql.NullFloat64
			hasValue   bool
		)
		if err := rows.Scan(&queryID, &queryType, &target, &timeValued, &date, &value, &hasValue); err != nil {
			return nil, fmt.Errorf("history: scan point: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].QueryID != queryID {
			out = append(out, Series{
				QueryID:    queryID,
				QueryType:  queryType,
				Target:     target,
				TimeValued: timeValued,
			})
		}
		p := SeriesPoint{Date: date}
		if hasValue && value.Valid {
			v := value.Float64
			p.Value = &v
		}
		s := &out[len(out)-1]
		s.Points = append(s.Points, p)
	}
	return out, rows.Err()
}

// DeleteTrackerRuns removes every run (and, via cascade, every point) of a
// tracker. Used when a definition disappears from the trackers directory.
func (db *DB) DeleteTrackerRuns(tracker string) error {
	if _, err := db.conn.Exec(`DELETE FROM runs WHERE tracker = ?`, tracker); err != nil {
		return fmt.Errorf("history: delete runs: %w", err)
	}
	return nil
}

// TrackerNames returns the distinct tracker names present in the store.
func (db *DB) TrackerNames() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT tracker FROM runs ORDER BY tracker`)
	if err != nil {
		return nil, fmt.Errorf("history: tracker names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("history: scan name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
