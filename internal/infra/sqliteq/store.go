// Package sqliteq implements the job store on a single SQLite file holding
// the jobs and config tables. Transactions open in immediate mode so writers
// take the database lock up front, and lock waits are bounded by the
// connection's busy timeout — a claim that cannot get the lock in time
// reports contention instead of blocking its worker.
package sqliteq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"

	"queuectl/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	state       TEXT NOT NULL,
	attempts    INTEGER NOT NULL,
	max_retries INTEGER NOT NULL,
	priority    INTEGER NOT NULL DEFAULT 0,
	run_at      INTEGER,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs (state, priority DESC, created_at ASC);

CREATE TABLE IF NOT EXISTS config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// jobColumns is the scan order every job query selects.
const jobColumns = "id, command, state, attempts, max_retries, priority, run_at, created_at, updated_at"

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and initializes the
// schema. busyTimeout bounds how long any statement waits on the database
// lock before failing with a busy error.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_txlock=immediate&_busy_timeout=%d&_foreign_keys=on",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

const insertJobSQL = `
INSERT INTO jobs (` + jobColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *Store) Enqueue(ctx context.Context, job *domain.Job) error {
	var runAt sql.NullInt64
	if job.RunAt != nil {
		runAt = sql.NullInt64{Int64: job.RunAt.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, insertJobSQL,
		job.ID, job.Command, string(job.State), job.Attempts, job.MaxRetries,
		job.Priority, runAt, job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano(),
	)
	if isConstraintErr(err) {
		return fmt.Errorf("enqueue %s: %w", job.ID, domain.ErrDuplicateJob)
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return job, nil
}

// List returns jobs in creation order; state "" lists every job.
func (s *Store) List(ctx context.Context, state domain.State) ([]domain.Job, error) {
	sb := sq.Select(jobColumns).From("jobs").OrderBy("created_at ASC")
	if state != "" {
		sb = sb.Where(sq.Eq{"state": string(state)})
	}
	jobs, err := s.queryJobs(ctx, sb)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListDead returns the dead-letter queue, newest updated_at first.
func (s *Store) ListDead(ctx context.Context) ([]domain.Job, error) {
	sb := sq.Select(jobColumns).From("jobs").
		Where(sq.Eq{"state": string(domain.StateDead)}).
		OrderBy("updated_at DESC")
	jobs, err := s.queryJobs(ctx, sb)
	if err != nil {
		return nil, fmt.Errorf("list dead jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) queryJobs(ctx context.Context, sb sq.SelectBuilder) ([]domain.Job, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *Store) CountByState(ctx context.Context) (map[domain.State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.State]int)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("count jobs: scan: %w", err)
		}
		counts[domain.State(state)] = n
	}
	return counts, rows.Err()
}

// SetState persists a post-execution transition. Zero rows affected is not
// an error: the job may have been cancelled while it ran, and the delete
// wins.
func (s *Store) SetState(ctx context.Context, id string, state domain.State, attempts int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, attempts = ?, updated_at = ? WHERE id = ?`,
		string(state), attempts, time.Now().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("set state %s: %w", id, err)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}

func (s *Store) AllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("list config: scan: %w", err)
		}
		values[k] = v
	}
	return values, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*domain.Job, error) {
	var (
		job                domain.Job
		runAt              sql.NullInt64
		createdAt, updated int64
	)
	if err := r.Scan(
		&job.ID, &job.Command, &job.State, &job.Attempts, &job.MaxRetries,
		&job.Priority, &runAt, &createdAt, &updated,
	); err != nil {
		return nil, err
	}
	if runAt.Valid {
		t := time.Unix(0, runAt.Int64)
		job.RunAt = &t
	}
	job.CreatedAt = time.Unix(0, createdAt)
	job.UpdatedAt = time.Unix(0, updated)
	return &job, nil
}

func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}

func isBusyErr(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}
