package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteTracker writes one row per record to a local database.
type SQLiteTracker struct {
	db   *sql.DB
	tags Tags
}

// OpenSQLite opens (creating if needed) the tracking database at path.
func OpenSQLite(path string, tags Tags) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	t := &SQLiteTracker{db: db, tags: tags}
	if err := t.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate tracking: %w", err)
	}
	return t, nil
}

func (t *SQLiteTracker) migrate() error {
	_, err := t.db.Exec(`
CREATE TABLE IF NOT EXISTS expansion_runs (
  run_id TEXT PRIMARY KEY,
  run_name TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  original_query TEXT NOT NULL,
  expanded_query TEXT NOT NULL,
  degraded INTEGER NOT NULL DEFAULT 0,
  processing_time_seconds REAL NOT NULL,
  query_length_original INTEGER NOT NULL,
  query_length_expanded INTEGER NOT NULL,
  expansion_ratio REAL NOT NULL,
  model TEXT NOT NULL DEFAULT '',
  task TEXT NOT NULL DEFAULT '',
  environment TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

// LogExpansion inserts r.
func (t *SQLiteTracker) LogExpansion(ctx context.Context, r Record) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	m := r.Metrics()
	_, err := t.db.ExecContext(ctx, `
INSERT INTO expansion_runs(run_id, run_name, created_at, original_query, expanded_query, degraded,
  processing_time_seconds, query_length_original, query_length_expanded, expansion_ratio,
  model, task, environment)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, uuid.NewString(), r.RunName(), r.Timestamp.UnixMilli(), r.OriginalQuery, r.ExpandedQuery, boolToInt(r.Degraded),
		m[0].Value, int(m[1].Value), int(m[2].Value), m[3].Value,
		t.tags.Model, t.tags.Task, t.tags.Environment)
	return err
}

// Summary aggregates the stored runs.
type Summary struct {
	Runs           int
	DegradedRuns   int
	MeanRatio      float64
	MeanLatencySec float64
}

// Summary returns aggregate figures over every stored run.
func (t *SQLiteTracker) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	row := t.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(degraded), 0), COALESCE(AVG(expansion_ratio), 0), COALESCE(AVG(processing_time_seconds), 0)
FROM expansion_runs;
`)
	err := row.Scan(&s.Runs, &s.DegradedRuns, &s.MeanRatio, &s.MeanLatencySec)
	return s, err
}

// Close releases the database.
func (t *SQLiteTracker) Close() error {
	if t.db == nil {
		return nil
	}
	return t.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
