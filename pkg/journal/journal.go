// Package journal persists simulation runs and their measurement results to
// an embedded SQLite database, so past runs can be listed and re-inspected
// from the CLI.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/photonq/lumen/internal/encoding"
	"github.com/photonq/lumen/pkg/logging"
)

var (
	// ErrClosed is returned when using a closed journal.
	ErrClosed = errors.New("journal is closed")

	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("run not found")
)

// Result is one measurement outcome within a run. Exactly one of Scalar,
// Values or Amplitudes is set, according to Kind.
type Result struct {
	Kind       string
	Scalar     *float64
	Values     []float64
	Amplitudes []complex128
}

// Run is a recorded simulation run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Wires     int
	Shots     int
	Precision string
	Circuit   string // circuit description as JSON
	Elapsed   time.Duration
	Results   []Result
}

// Store is a SQLite-backed run journal.
type Store struct {
	mu     sync.Mutex
	path   string
	db     *sql.DB
	logger logging.Logger
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the journal's logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates a journal handle. Call Init before use.
func Open(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init opens the database and creates the schema.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("journal: init: %w", ErrClosed)
	}

	// WAL for concurrency, busy_timeout so concurrent CLI invocations wait
	// instead of failing.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", s.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("journal: init: %w", err)
	}
	s.db = db

	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("journal: init: %w", err)
	}
	if err := s.createTables(ctx); err != nil {
		return fmt.Errorf("journal: init: %w", err)
	}

	s.logger.Info("journal initialized", "path", s.path)
	return nil
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		wires INTEGER NOT NULL,
		shots INTEGER NOT NULL DEFAULT 0,
		precision TEXT NOT NULL,
		circuit TEXT NOT NULL,
		elapsed_us INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		kind TEXT NOT NULL,
		scalar REAL,
		buffer BLOB,
		PRIMARY KEY (run_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the journal.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun persists a run and its results in one transaction. A missing ID
// is assigned a fresh UUID; the assigned ID is written back to run.ID.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("journal: record: %w", ErrClosed)
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, wires, shots, precision, circuit, elapsed_us) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Wires, run.Shots, run.Precision, run.Circuit, run.Elapsed.Microseconds())
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}

	for i, res := range run.Results {
		buf, err := encodeBuffer(res)
		if err != nil {
			return fmt.Errorf("journal: record: %w", err)
		}
		var scalar any
		if res.Scalar != nil {
			scalar = *res.Scalar
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO results (run_id, idx, kind, scalar, buffer) VALUES (?, ?, ?, ?, ?)`,
			run.ID, i, res.Kind, scalar, buf)
		if err != nil {
			return fmt.Errorf("journal: record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	s.logger.Debug("run recorded", "id", run.ID, "results", len(run.Results))
	return nil
}

// ListRuns returns the most recent runs, newest first, without their
// results.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.db == nil {
		return nil, fmt.Errorf("journal: list: %w", ErrClosed)
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, wires, shots, precision, circuit, elapsed_us
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("journal: list: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its results.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.db == nil {
		return nil, fmt.Errorf("journal: get: %w", ErrClosed)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, wires, shots, precision, circuit, elapsed_us FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal: get %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, scalar, buffer FROM results WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("journal: get: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var scalar sql.NullFloat64
		var buf []byte
		if err := rows.Scan(&kind, &scalar, &buf); err != nil {
			return nil, fmt.Errorf("journal: get: %w", err)
		}
		res, err := decodeResult(kind, scalar, buf)
		if err != nil {
			return nil, fmt.Errorf("journal: get: %w", err)
		}
		run.Results = append(run.Results, res)
	}
	return &run, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var elapsedUS int64
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.Wires, &r.Shots, &r.Precision, &r.Circuit, &elapsedUS); err != nil {
		return Run{}, err
	}
	r.Elapsed = time.Duration(elapsedUS) * time.Microsecond
	return r, nil
}

func encodeBuffer(res Result) ([]byte, error) {
	switch {
	case res.Amplitudes != nil:
		return encoding.EncodeComplex(res.Amplitudes)
	case res.Values != nil:
		return encoding.EncodeFloats(res.Values)
	default:
		return nil, nil
	}
}

func decodeResult(kind string, scalar sql.NullFloat64, buf []byte) (Result, error) {
	res := Result{Kind: kind}
	if scalar.Valid {
		v := scalar.Float64
		res.Scalar = &v
		return res, nil
	}
	if buf == nil {
		return res, nil
	}
	if kind == "state" {
		amps, err := encoding.DecodeComplex(buf)
		if err != nil {
			return Result{}, err
		}
		res.Amplitudes = amps
		return res, nil
	}
	values, err := encoding.DecodeFloats(buf)
	if err != nil {
		return Result{}, err
	}
	res.Values = values
	return res, nil
}
