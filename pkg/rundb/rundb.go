// Package rundb persists tracking runs and their candidate ids in SQLite,
// so earlier discoveries stay queryable without re-parsing capture logs.
package rundb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"
)

// Schema creates the run store tables. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint  TEXT NOT NULL UNIQUE,
    log_path     TEXT NOT NULL,
    reference_id TEXT NOT NULL,
    bus          TEXT NOT NULL,
    start_time   REAL NOT NULL,
    end_time     REAL NOT NULL,
    width        INTEGER NOT NULL,
    threshold    INTEGER NOT NULL,
    group_count  INTEGER NOT NULL,
    created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS candidates (
    run_id         INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    message_id     TEXT NOT NULL,
    group_count    INTEGER NOT NULL,
    candidate_mask TEXT NOT NULL,
    PRIMARY KEY (run_id, message_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Run is one stored tracking run.
type Run struct {
	ID          int64
	Fingerprint string
	LogPath     string
	ReferenceID string
	Bus         string
	Start       float64
	End         float64
	Width       int
	Threshold   int
	GroupCount  int
	CreatedAt   string
}

// ComputeFingerprint hashes the parameters that make a run repeatable. Two
// runs over the same log with the same reference, bus, window, width and
// threshold collide on purpose: saving again updates in place.
func (r *Run) ComputeFingerprint() string {
	key := fmt.Sprintf("%s|%s|%s|%.6f|%.6f|%d|%d",
		r.LogPath, r.ReferenceID, r.Bus, r.Start, r.End, r.Width, r.Threshold)
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// Candidate is one discovered message id within a stored run.
type Candidate struct {
	RunID      int64
	MessageID  string
	GroupCount int
	Mask       string
}

// Store wraps the SQLite database holding runs and candidates.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the run store at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("rundb: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("rundb: init: %w", err)
	}
	return s, nil
}

// Init applies the schema. Open calls it; exposed for stores built on an
// existing *sql.DB in tests.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores a run and its candidates, replacing any earlier run with
// the same fingerprint. Returns the run's row id.
func (s *Store) SaveRun(run *Run, cands []*Candidate) (int64, error) {
	if run.Fingerprint == "" {
		run.Fingerprint = run.ComputeFingerprint()
	}
	if run.CreatedAt == "" {
		run.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("rundb: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (fingerprint, log_path, reference_id, bus, start_time, end_time, width, threshold, group_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
		     group_count = excluded.group_count,
		     created_at  = excluded.created_at`,
		run.Fingerprint, run.LogPath, run.ReferenceID, run.Bus,
		run.Start, run.End, run.Width, run.Threshold, run.GroupCount, run.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("rundb: save run: %w", err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM runs WHERE fingerprint = ?`, run.Fingerprint).Scan(&id); err != nil {
		return 0, fmt.Errorf("rundb: resolve run id: %w", err)
	}

	// Replace candidates wholesale: an upserted run may have fewer than
	// before.
	if _, err := tx.Exec(`DELETE FROM candidates WHERE run_id = ?`, id); err != nil {
		return 0, fmt.Errorf("rundb: clear candidates: %w", err)
	}
	for _, c := range cands {
		_, err := tx.Exec(
			`INSERT INTO candidates (run_id, message_id, group_count, candidate_mask) VALUES (?, ?, ?, ?)`,
			id, c.MessageID, c.GroupCount, c.Mask,
		)
		if err != nil {
			return 0, fmt.Errorf("rundb: save candidate %s: %w", c.MessageID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("rundb: commit: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns all stored runs, newest first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, fingerprint, log_path, reference_id, bus, start_time, end_time, width, threshold, group_count, created_at
		 FROM runs ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("rundb: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.Fingerprint, &r.LogPath, &r.ReferenceID, &r.Bus,
			&r.Start, &r.End, &r.Width, &r.Threshold, &r.GroupCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("rundb: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Candidates returns the candidates of one run, ordered by message id.
func (s *Store) Candidates(runID int64) ([]*Candidate, error) {
	rows, err := s.db.Query(
		`SELECT run_id, message_id, group_count, candidate_mask
		 FROM candidates WHERE run_id = ? ORDER BY message_id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("rundb: list candidates: %w", err)
	}
	defer rows.Close()

	var cands []*Candidate
	for rows.Next() {
		c := &Candidate{}
		if err := rows.Scan(&c.RunID, &c.MessageID, &c.GroupCount, &c.Mask); err != nil {
			return nil, fmt.Errorf("rundb: scan candidate: %w", err)
		}
		cands = append(cands, c)
	}
	return cands, rows.Err()
}
