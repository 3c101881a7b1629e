// Copyright Nora Vasquez, 2026. All rights reserved.

// Package manifest persists per-series, per-sample, and per-run
// download bookkeeping in a SQLite database.
package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nvasquez/fastqfetch/pkg/types"
)

const (
	manifestDir = "manifest"
	dbFile      = "fastqfetch.db"
)

// Store manages the manifest SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the manifest database at
// DataDir/manifest/fastqfetch.db, creating the schema when missing.
func Open(cfg types.ManifestConfig) (*Store, error) {
	dir := filepath.Join(cfg.DataDir, manifestDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening manifest database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS series (
			accession TEXT PRIMARY KEY,
			title TEXT,
			sample_count INTEGER,
			fetched_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			accession TEXT PRIMARY KEY,
			series_accession TEXT REFERENCES series(accession),
			title TEXT,
			organism TEXT,
			characteristics TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			accession TEXT PRIMARY KEY,
			sample_accession TEXT,
			source_accession TEXT,
			study_accession TEXT,
			state TEXT NOT NULL,
			method TEXT,
			bytes INTEGER,
			path TEXT,
			error TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_series ON samples(series_accession)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source_accession)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordSeries upserts a series and its samples.
func (s *Store) RecordSeries(ctx context.Context, series *SeriesRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO series (accession, title, sample_count, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(accession) DO UPDATE SET
			title=excluded.title, sample_count=excluded.sample_count,
			fetched_at=excluded.fetched_at`,
		series.Accession, series.Title, len(series.Samples),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting series: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (accession, series_accession, title, organism, characteristics)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(accession) DO UPDATE SET
			series_accession=excluded.series_accession, title=excluded.title,
			organism=excluded.organism, characteristics=excluded.characteristics`)
	if err != nil {
		return fmt.Errorf("preparing sample insert: %w", err)
	}
	defer stmt.Close()

	for _, sample := range series.Samples {
		charJSON, _ := json.Marshal(sample.Characteristics)
		_, err := stmt.ExecContext(ctx,
			sample.Accession, series.Accession, sample.Title,
			sample.Organism, string(charJSON))
		if err != nil {
			return fmt.Errorf("inserting sample %s: %w", sample.Accession, err)
		}
	}

	return tx.Commit()
}

// IsDone reports whether the run is recorded in the done state, along
// with the recorded destination path.
func (s *Store) IsDone(accession string) (bool, string, error) {
	var state, path string
	err := s.db.QueryRow(`SELECT state, path FROM runs WHERE accession = ?`, accession).Scan(&state, &path)
	if err == sql.ErrNoRows {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("querying run %s: %w", accession, err)
	}
	return types.DownloadState(state) == types.StateDone, path, nil
}

// SetState upserts a run's download state. Implements download.Recorder.
func (s *Store) SetState(run types.Run, state types.DownloadState, method, path, errMsg string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (accession, sample_accession, source_accession, study_accession,
				state, method, bytes, path, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(accession) DO UPDATE SET
			sample_accession=excluded.sample_accession,
			source_accession=excluded.source_accession,
			study_accession=excluded.study_accession,
			state=excluded.state, method=excluded.method, bytes=excluded.bytes,
			path=excluded.path, error=excluded.error, updated_at=excluded.updated_at`,
		run.Accession, run.SampleAccession, run.SourceAccession, run.StudyAccession,
		string(state), method, run.TotalBytes(), path, errMsg,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting run %s: %w", run.Accession, err)
	}
	return nil
}

// SeriesRecord is the manifest view of a fetched series.
type SeriesRecord struct {
	Accession string
	Title     string
	Samples   []SampleRecord
}

// SampleRecord is the manifest view of one sample.
type SampleRecord struct {
	Accession       string
	Title           string
	Organism        string
	Characteristics map[string]string
}

// RunStatus is one row of the status report.
type RunStatus struct {
	Accession       string              `json:"accession"`
	SourceAccession string              `json:"source_accession,omitempty"`
	StudyAccession  string              `json:"study_accession,omitempty"`
	State           types.DownloadState `json:"state"`
	Method          string              `json:"method,omitempty"`
	Bytes           int64               `json:"bytes,omitempty"`
	Path            string              `json:"path,omitempty"`
	Error           string              `json:"error,omitempty"`
	UpdatedAt       string              `json:"updated_at,omitempty"`
}

// StatusOptions filters the status report.
type StatusOptions struct {
	// Series restricts the report to runs resolved from samples of the
	// given series accession.
	Series string

	// State restricts the report to runs in the given state.
	State types.DownloadState
}

// Status returns run states, optionally filtered by series or state,
// ordered by accession.
func (s *Store) Status(ctx context.Context, opts StatusOptions) ([]RunStatus, error) {
	query := `SELECT r.accession, r.source_accession, r.study_accession, r.state,
			r.method, r.bytes, r.path, r.error, r.updated_at
		FROM runs r`
	var args []any
	var where []string

	if opts.Series != "" {
		query += ` JOIN samples sm ON sm.accession = r.source_accession`
		where = append(where, `sm.series_accession = ?`)
		args = append(args, opts.Series)
	}
	if opts.State != "" {
		where = append(where, `r.state = ?`)
		args = append(args, string(opts.State))
	}
	for i, cond := range where {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY r.accession`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunStatus
	for rows.Next() {
		var rs RunStatus
		var state string
		if err := rows.Scan(&rs.Accession, &rs.SourceAccession, &rs.StudyAccession,
			&state, &rs.Method, &rs.Bytes, &rs.Path, &rs.Error, &rs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		rs.State = types.DownloadState(state)
		out = append(out, rs)
	}
	return out, rows.Err()
}
