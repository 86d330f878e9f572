// Package runstore persists bench run history in SQLite so renderer
// performance and output hashes can be compared across invocations.
package runstore

import (
	"database/sql"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/sqlite"
	"github.com/suin/go-taml/internal/validation"
)

// DefaultListLimit caps List results when no explicit limit is given.
const DefaultListLimit = 50

// timeLayout is RFC 3339 with fixed-width nanoseconds so that stored
// timestamps sort lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		corpus TEXT NOT NULL,
		renderer TEXT NOT NULL,
		input_bytes INTEGER NOT NULL,
		parse_ns INTEGER NOT NULL,
		render_ns INTEGER NOT NULL,
		output_hash TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_recency ON runs(corpus, renderer, created_at);
`

// Run is one timed parse+render pass over a corpus entry.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Corpus     string    `json:"corpus"`
	Renderer   string    `json:"renderer"`
	InputBytes int64     `json:"input_bytes"`
	ParseNS    int64     `json:"parse_ns"`
	RenderNS   int64     `json:"render_ns"`
	OutputHash string    `json:"output_hash"`
}

// Store is a handle on a run history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a run history database at path.
func Open(path string) (*Store, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.Wrapf(err, "run store path %q", path)
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create runs schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a run. A missing ID is assigned a fresh UUID and a zero
// CreatedAt is stamped with the current time. Returns the run's ID.
func (s *Store) Record(run Run) (string, error) {
	if err := validation.ValidateFilename(run.Corpus); err != nil {
		return "", errors.Wrapf(err, "corpus %q", run.Corpus)
	}
	if run.Renderer == "" {
		return "", errors.NewValidation("renderer", "must not be empty")
	}
	if !hashPattern.MatchString(run.OutputHash) {
		return "", errors.NewValidation("output_hash", "must be 64 lowercase hex characters")
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, created_at, corpus, renderer, input_bytes, parse_ns, render_ns, output_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.Corpus,
		run.Renderer,
		run.InputBytes,
		run.ParseNS,
		run.RenderNS,
		run.OutputHash,
	)
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}

	return run.ID, nil
}

// List returns runs newest first, optionally filtered to one corpus entry.
// A non-positive limit falls back to DefaultListLimit.
func (s *Store) List(corpus string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT id, created_at, corpus, renderer, input_bytes, parse_ns, render_ns, output_hash
		FROM runs ORDER BY created_at DESC LIMIT ?`
	args := []interface{}{limit}
	if corpus != "" {
		query = `SELECT id, created_at, corpus, renderer, input_bytes, parse_ns, render_ns, output_hash
			FROM runs WHERE corpus = ? ORDER BY created_at DESC LIMIT ?`
		args = []interface{}{corpus, limit}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}

	return runs, nil
}

// LastFor returns the most recent run for a corpus entry and renderer.
func (s *Store) LastFor(corpus, renderer string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, corpus, renderer, input_bytes, parse_ns, render_ns, output_hash
		 FROM runs WHERE corpus = ? AND renderer = ?
		 ORDER BY created_at DESC LIMIT 1`,
		corpus, renderer,
	)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("run", corpus+"/"+renderer)
		}
		return nil, err
	}

	return &run, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var createdAt string

	err := s.Scan(
		&run.ID,
		&createdAt,
		&run.Corpus,
		&run.Renderer,
		&run.InputBytes,
		&run.ParseNS,
		&run.RenderNS,
		&run.OutputHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, errors.Wrap(err, "scan run")
	}

	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, errors.Wrapf(err, "parse created_at %q", createdAt)
	}

	return run, nil
}
