// Package queue is a durable overload queue for expansion requests backed by
// SQLite. Messages are claimed with a visibility timeout: a claimed message
// that is neither completed nor failed becomes available again once the
// timeout lapses.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"qexpand/pkg/types"
)

// Job states.
const (
	StateQueued   = "queued"
	StateInFlight = "in_flight"
	StateDone     = "done"
	StateFailed   = "failed"
)

const (
	defaultVisibility  = 2 * time.Minute
	defaultMaxAttempts = 3
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("job not found")

var errLeaseExpired = errors.New("visibility timeout lapsed on final attempt")

// IsNotFound reports whether err indicates an unknown job id.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Message is a claimed job handed to a consumer.
type Message struct {
	ID       string
	Query    string
	Attempts int
	Enqueued time.Time
}

// Options tunes a Queue. Zero values take defaults.
type Options struct {
	Visibility  time.Duration
	MaxAttempts int
	// Now is used for timestamps; defaults to time.Now.
	Now func() time.Time
}

// Queue stores jobs in a single SQLite table.
type Queue struct {
	db          *sql.DB
	visibility  time.Duration
	maxAttempts int
	now         func() time.Time
}

// Open opens (creating if needed) the queue database at path.
func Open(path string, opts Options) (*Queue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	q := &Queue{db: db, visibility: opts.Visibility, maxAttempts: opts.MaxAttempts, now: opts.Now}
	if q.visibility <= 0 {
		q.visibility = defaultVisibility
	}
	if q.maxAttempts <= 0 {
		q.maxAttempts = defaultMaxAttempts
	}
	if q.now == nil {
		q.now = time.Now
	}
	if err := q.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate queue: %w", err)
	}
	return q, nil
}

// Close releases the database.
func (q *Queue) Close() error {
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}

func (q *Queue) migrate() error {
	_, err := q.db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  query TEXT NOT NULL,
  state TEXT NOT NULL,
  expanded TEXT NOT NULL DEFAULT '',
  error TEXT NOT NULL DEFAULT '',
  attempts INTEGER NOT NULL DEFAULT 0,
  enqueued_at INTEGER NOT NULL,
  visible_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS jobs_state_visible ON jobs(state, visible_at);
`)
	return err
}

// Send enqueues query and returns the job id.
func (q *Queue) Send(ctx context.Context, query string) (string, error) {
	id := uuid.NewString()
	now := q.now().UnixMilli()
	_, err := q.db.ExecContext(ctx, `
INSERT INTO jobs(id, query, state, enqueued_at, visible_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?);
`, id, query, StateQueued, now, now, now)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return id, nil
}

// Receive claims up to max visible jobs, oldest first, and hides them for the
// visibility timeout. In-flight jobs whose timeout lapsed are claimable again
// unless they already used MaxAttempts; those are marked failed.
func (q *Queue) Receive(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	now := q.now()
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
UPDATE jobs SET state=?, error=?, updated_at=?
WHERE state=? AND visible_at <= ? AND attempts >= ?;
`, StateFailed, errLeaseExpired.Error(), now.UnixMilli(), StateInFlight, now.UnixMilli(), q.maxAttempts); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
SELECT id, query, attempts, enqueued_at FROM jobs
WHERE state IN (?, ?) AND visible_at <= ? AND attempts < ?
ORDER BY enqueued_at ASC, id ASC
LIMIT ?;
`, StateQueued, StateInFlight, now.UnixMilli(), q.maxAttempts, max)
	if err != nil {
		return nil, err
	}
	var out []Message
	for rows.Next() {
		var m Message
		var enq int64
		if err := rows.Scan(&m.ID, &m.Query, &m.Attempts, &enq); err != nil {
			rows.Close()
			return nil, err
		}
		m.Enqueued = time.UnixMilli(enq)
		out = append(out, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hidden := now.Add(q.visibility).UnixMilli()
	for i := range out {
		out[i].Attempts++
		if _, err := tx.ExecContext(ctx, `
UPDATE jobs SET state=?, attempts=?, visible_at=?, updated_at=? WHERE id=?;
`, StateInFlight, out[i].Attempts, hidden, now.UnixMilli(), out[i].ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Complete records the expansion for a claimed job.
func (q *Queue) Complete(ctx context.Context, id, expanded string) error {
	res, err := q.db.ExecContext(ctx, `
UPDATE jobs SET state=?, expanded=?, error='', updated_at=? WHERE id=?;
`, StateDone, expanded, q.now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Fail records cause for a claimed job. The job is retried after the
// visibility timeout until it has been attempted MaxAttempts times.
func (q *Queue) Fail(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	now := q.now().UnixMilli()
	res, err := q.db.ExecContext(ctx, `
UPDATE jobs SET
  state = CASE WHEN attempts >= ? THEN ? ELSE ? END,
  error=?, visible_at=?, updated_at=?
WHERE id=?;
`, q.maxAttempts, StateFailed, StateQueued, msg, now+q.visibility.Milliseconds(), now, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Release hands a claimed job back without spending the attempt. The job is
// visible again immediately.
func (q *Queue) Release(ctx context.Context, id string) error {
	now := q.now().UnixMilli()
	res, err := q.db.ExecContext(ctx, `
UPDATE jobs SET state=?, attempts=MAX(attempts-1, 0), visible_at=?, updated_at=?
WHERE id=? AND state=?;
`, StateQueued, now, now, id, StateInFlight)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Get returns one job.
func (q *Queue) Get(ctx context.Context, id string) (types.QueueJob, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT id, query, state, expanded, error, attempts, enqueued_at FROM jobs WHERE id=?;
`, id)
	var j types.QueueJob
	var enq int64
	err := row.Scan(&j.ID, &j.Query, &j.State, &j.ExpandedQuery, &j.Error, &j.Attempts, &enq)
	if err == sql.ErrNoRows {
		return types.QueueJob{}, ErrNotFound
	}
	if err != nil {
		return types.QueueJob{}, err
	}
	j.EnqueuedUnix = enq / 1000
	return j, nil
}

// Status counts jobs by visibility.
func (q *Queue) Status(ctx context.Context) (types.QueueStatus, error) {
	st := types.QueueStatus{QueueEnabled: true}
	now := q.now().UnixMilli()
	row := q.db.QueryRowContext(ctx, `
SELECT
  COALESCE(SUM(CASE WHEN state IN (?, ?) AND visible_at <= ? THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN state IN (?, ?) AND visible_at > ? THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0)
FROM jobs;
`, StateQueued, StateInFlight, now, StateQueued, StateInFlight, now, StateDone)
	if err := row.Scan(&st.MessagesAvailable, &st.MessagesInFlight, &st.MessagesDone); err != nil {
		return st, err
	}
	return st, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
