// Package store records runs, attempts and archived motifs in a SQLite
// database so several runs over the same corpus can be compared later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"motifsampler/pkg/api"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs(
	run_id    TEXT PRIMARY KEY,
	ts        REAL NOT NULL,
	version   TEXT NOT NULL,
	mode      TEXT NOT NULL,
	sequences INTEGER NOT NULL,
	attempts  INTEGER NOT NULL,
	stored    INTEGER NOT NULL DEFAULT 0,
	archive   TEXT
);
CREATE TABLE IF NOT EXISTS attempts(
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	iter       INTEGER NOT NULL,
	worker     INTEGER NOT NULL,
	seed       TEXT NOT NULL,
	status     TEXT NOT NULL,
	iterations INTEGER NOT NULL,
	phase      INTEGER NOT NULL,
	stored     INTEGER NOT NULL,
	consensus  TEXT,
	num_sites  INTEGER,
	spec       REAL,
	map        REAL,
	entropy    REAL,
	file       TEXT,
	PRIMARY KEY(run_id, iter)
);
CREATE TABLE IF NOT EXISTS motifs(
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	rank      INTEGER NOT NULL,
	consensus TEXT NOT NULL,
	num_sites INTEGER NOT NULL,
	spec      REAL NOT NULL,
	map       REAL NOT NULL,
	visits    INTEGER NOT NULL,
	record    TEXT NOT NULL,
	PRIMARY KEY(run_id, rank)
);`

// Store is a handle on one database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store %s: schema: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// BeginRun inserts the run row. Counts are filled in by FinishRun.
func (s *Store) BeginRun(ctx context.Context, sum api.RunSummaryV1) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, ts, version, mode, sequences, attempts) VALUES(?,?,?,?,?,?)`,
		sum.RunID, float64(time.Now().UnixMilli())/1000.0, sum.Version, sum.Mode, sum.Sequences, sum.Attempts)
	if err != nil {
		return fmt.Errorf("store: begin run %s: %w", sum.RunID, err)
	}
	return nil
}

// AddAttempt records one finished attempt.
func (s *Store) AddAttempt(ctx context.Context, a api.AttemptV1) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts(run_id, iter, worker, seed, status, iterations, phase, stored,
			consensus, num_sites, spec, map, entropy, file) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.RunID, a.Iter, a.Worker, fmt.Sprint(a.Seed), a.Status, a.Iterations, a.Phase, a.Stored,
		a.Consensus, a.NumSites, a.Spec, a.Map, a.Entropy, a.File)
	if err != nil {
		return fmt.Errorf("store: attempt %d: %w", a.Iter, err)
	}
	return nil
}

// FinishRun stores the final counts and the reported motifs in one
// transaction.
func (s *Store) FinishRun(ctx context.Context, sum api.RunSummaryV1) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`UPDATE runs SET attempts = ?, stored = ?, archive = ? WHERE run_id = ?`,
		sum.Attempts, sum.Stored, sum.Archive, sum.RunID); err != nil {
		return fmt.Errorf("store: finish run %s: %w", sum.RunID, err)
	}
	for i, m := range sum.Motifs {
		rec, jerr := json.Marshal(m)
		if jerr != nil {
			return jerr
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO motifs(run_id, rank, consensus, num_sites, spec, map, visits, record) VALUES(?,?,?,?,?,?,?,?)`,
			sum.RunID, i+1, m.Consensus, len(m.Sites), m.Spec, m.Map, m.Visits, string(rec)); err != nil {
			return fmt.Errorf("store: motif %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// Attempts returns the attempts of a run in attempt order.
func (s *Store) Attempts(ctx context.Context, runID string) ([]api.AttemptV1, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iter, worker, seed, status, iterations, phase, stored,
			consensus, num_sites, spec, map, entropy, file
		FROM attempts WHERE run_id = ? ORDER BY iter`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.AttemptV1
	for rows.Next() {
		a := api.AttemptV1{RunID: runID}
		var seed string
		if err := rows.Scan(&a.Iter, &a.Worker, &seed, &a.Status, &a.Iterations, &a.Phase, &a.Stored,
			&a.Consensus, &a.NumSites, &a.Spec, &a.Map, &a.Entropy, &a.File); err != nil {
			return nil, err
		}
		if _, err := fmt.Sscan(seed, &a.Seed); err != nil {
			return nil, fmt.Errorf("store: attempt %d seed %q: %w", a.Iter, seed, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Motifs returns the reported motifs of a run, best first.
func (s *Store) Motifs(ctx context.Context, runID string) ([]api.MotifV1, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM motifs WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.MotifV1
	for rows.Next() {
		var rec string
		if err := rows.Scan(&rec); err != nil {
			return nil, err
		}
		var m api.MotifV1
		if err := json.Unmarshal([]byte(rec), &m); err != nil {
			return nil, fmt.Errorf("store: motif record: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
