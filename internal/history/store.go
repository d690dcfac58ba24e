// Package history persists summaries of finished simulation runs in SQLite
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when no run has the requested id
var ErrRunNotFound = errors.New("run not found")

// Run is the stored summary of one simulation run
type Run struct {
	ID                 string        `json:"id"`
	PoolID             string        `json:"pool_id"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
	TotalTasks         int           `json:"total_tasks"`
	NumThreads         int           `json:"num_threads"`
	FailureProbability float64       `json:"failure_probability"`
	MaxRetries         int           `json:"max_retries"`
	Seed               int64         `json:"seed"`
	Submitted          int64         `json:"submitted"`
	Succeeded          int64         `json:"succeeded"`
	Failed             int64         `json:"failed"`
	Attempts           int64         `json:"attempts"`
	Valid              bool          `json:"valid"`
}

// Store is a run history backed by SQLite
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path (":memory:" for a private
// in-memory database) and prepares the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if path == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s, err := NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore initializes the required schema in db and returns a Store.
// db must use a SQLite driver.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			pool_id TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			total_tasks INTEGER NOT NULL,
			num_threads INTEGER NOT NULL,
			failure_probability REAL NOT NULL,
			max_retries INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			submitted INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			valid INTEGER NOT NULL
		);`,
	)
	return err
}

// Save inserts run
func (s *Store) Save(ctx context.Context, run *Run) error {
	valid := 0
	if run.Valid {
		valid = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, pool_id, started_at, duration_ns, total_tasks, num_threads,
			failure_probability, max_retries, seed, submitted, succeeded, failed, attempts, valid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.PoolID,
		run.StartedAt.UnixNano(),
		int64(run.Duration),
		run.TotalTasks,
		run.NumThreads,
		run.FailureProbability,
		run.MaxRetries,
		run.Seed,
		run.Submitted,
		run.Succeeded,
		run.Failed,
		run.Attempts,
		valid,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

const selectRun = `
	SELECT id, pool_id, started_at, duration_ns, total_tasks, num_threads,
		failure_probability, max_retries, seed, submitted, succeeded, failed, attempts, valid
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		startedAt int64
		duration  int64
		valid     int
	)
	if err := row.Scan(
		&run.ID,
		&run.PoolID,
		&startedAt,
		&duration,
		&run.TotalTasks,
		&run.NumThreads,
		&run.FailureProbability,
		&run.MaxRetries,
		&run.Seed,
		&run.Submitted,
		&run.Succeeded,
		&run.Failed,
		&run.Attempts,
		&valid,
	); err != nil {
		return nil, err
	}

	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.Duration = time.Duration(duration)
	run.Valid = valid != 0
	return &run, nil
}

// Get returns the run with id
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := selectRun + ` ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
