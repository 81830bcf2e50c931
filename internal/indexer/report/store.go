// Package report persists index build reports in PostgreSQL so operators can
// see what each rebuild indexed, skipped and failed on.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/resilience"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS build_runs (
		run_id          TEXT PRIMARY KEY,
		index_path      TEXT NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL,
		duration_ms     BIGINT NOT NULL,
		documents       INTEGER NOT NULL,
		skipped         INTEGER NOT NULL,
		near_duplicates INTEGER NOT NULL,
		distinct_terms  INTEGER NOT NULL,
		indexed_terms   BIGINT NOT NULL,
		excluded_terms  BIGINT NOT NULL,
		failures        JSONB NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS build_runs_started_at_idx ON build_runs (started_at DESC)`,
}

// Run is a stored build report.
type Run struct {
	indexer.Report
	IndexPath string `json:"index_path"`
}

type Store struct {
	db *postgres.Client
}

func NewStore(db *postgres.Client) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, schema...)
}

// Save records rep for the index written to indexPath. Transient database
// errors are retried.
func (s *Store) Save(ctx context.Context, indexPath string, rep indexer.Report) error {
	failures := rep.Failures
	if failures == nil {
		failures = []indexer.Failure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("encoding failures: %w", err)
	}
	return resilience.Retry(ctx, "save-build-report", resilience.RetryConfig{}, func() error {
		_, err := s.db.DB.ExecContext(ctx, `
			INSERT INTO build_runs (run_id, index_path, started_at, duration_ms, documents, skipped,
				near_duplicates, distinct_terms, indexed_terms, excluded_terms, failures)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (run_id) DO NOTHING`,
			rep.RunID, indexPath, rep.StartedAt, rep.Duration.Milliseconds(), rep.Documents, rep.Skipped,
			rep.NearDuplicates, rep.DistinctTerms, rep.IndexedTerms, rep.ExcludedTerms, failuresJSON,
		)
		return err
	})
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT run_id, index_path, started_at, duration_ms, documents, skipped, near_duplicates,
			distinct_terms, indexed_terms, excluded_terms, failures
		FROM build_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying build runs: %w", err)
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
	return runs, rows.Err()
}

// Latest returns the newest run, or nil when none is stored.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	runs, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run          Run
		durationMS   int64
		failuresJSON []byte
	)
	err := sc.Scan(&run.RunID, &run.IndexPath, &run.StartedAt, &durationMS, &run.Documents, &run.Skipped,
		&run.NearDuplicates, &run.DistinctTerms, &run.IndexedTerms, &run.ExcludedTerms, &failuresJSON)
	if err != nil {
		return run, fmt.Errorf("scanning build run: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal(failuresJSON, &run.Failures); err != nil {
		return run, fmt.Errorf("decoding failures of %s: %w", run.RunID, err)
	}
	return run, nil
}
