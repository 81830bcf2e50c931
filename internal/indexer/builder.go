// Package indexer builds an inverted index from a document collection. A
// fixed-size worker pool parses documents in parallel and merges each record
// into one shared index; once every document is in, the index is scored and
// validated.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/parser"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
)

// Failure is a document that could not be indexed.
type Failure struct {
	DocID string `json:"doc_id"`
	Error string `json:"error"`
}

// Report summarises one build run.
type Report struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Documents      int           `json:"documents"`
	// Skipped counts directory entries ignored by the extension filter.
	Skipped        int           `json:"skipped"`
	NearDuplicates int           `json:"near_duplicates"`
	DistinctTerms  int           `json:"distinct_terms"`
	IndexedTerms   int           `json:"indexed_terms"`
	ExcludedTerms  int           `json:"excluded_terms"`
	Failures       []Failure     `json:"failures"`
}

type Result struct {
	Index  *index.Index
	Report Report
}

type Builder struct {
	cfg        config.IndexerConfig
	normalizer normalizer.Normalizer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Builder)

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

func NewBuilder(cfg config.IndexerConfig, n normalizer.Normalizer, opts ...Option) *Builder {
	b := &Builder{
		cfg:        cfg,
		normalizer: n,
		logger:     slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cfg.Workers < 1 {
		b.cfg.Workers = 1
	}
	return b
}

// Build indexes every matching file in dir.
func (b *Builder) Build(ctx context.Context, dir string) (*Result, error) {
	sources, skipped, err := DirSources(dir, b.cfg.Extensions)
	if err != nil {
		return nil, err
	}
	res, err := b.BuildSources(ctx, sources)
	if err != nil {
		return nil, err
	}
	res.Report.Skipped = skipped
	b.observeSkipped(skipped)
	return res, nil
}

// buildRun carries the shared state of one BuildSources call.
type buildRun struct {
	ix       *index.Index
	seen     sync.Map
	aborted  atomic.Bool
	fatalErr error
	fatalMu  sync.Mutex

	mu       sync.Mutex
	failures []Failure
	nearDups int
}

func (r *buildRun) fail(err error) {
	r.fatalMu.Lock()
	defer r.fatalMu.Unlock()
	if r.fatalErr == nil {
		r.fatalErr = err
	}
	r.aborted.Store(true)
}

// BuildSources indexes the given documents. Unreadable documents are recorded
// in the report; the first fatal error stops the build and is returned.
func (b *Builder) BuildSources(ctx context.Context, sources []Source) (*Result, error) {
	start := time.Now()
	run := &buildRun{ix: index.New()}

	pool, err := ants.NewPool(b.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	b.logger.Info("build started", "documents", len(sources), "workers", b.cfg.Workers)

	var wg sync.WaitGroup
	for _, src := range sources {
		if run.aborted.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			run.fail(err)
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			b.process(ctx, run, src)
		}); err != nil {
			wg.Done()
			run.fail(fmt.Errorf("submitting %q: %w", src.ID(), err))
			break
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		run.fail(err)
	}
	parseDone := time.Now()
	b.observePhase("parse", parseDone.Sub(start))

	if run.fatalErr != nil {
		b.logger.Error("build aborted", "error", run.fatalErr)
		return nil, run.fatalErr
	}

	if err := run.ix.Score(); err != nil {
		return nil, fmt.Errorf("scoring index: %w", err)
	}
	if err := run.ix.Validate(); err != nil {
		return nil, fmt.Errorf("validating index: %w", err)
	}
	b.observePhase("score", time.Since(parseDone))

	sort.Slice(run.failures, func(i, j int) bool { return run.failures[i].DocID < run.failures[j].DocID })
	st := run.ix.Stats()
	rep := Report{
		RunID:          fmt.Sprintf("build-%d", start.UnixNano()),
		StartedAt:      start.UTC(),
		Duration:       time.Since(start),
		Documents:      st.TotalDocs,
		NearDuplicates: run.nearDups,
		DistinctTerms:  st.DistinctTerms,
		IndexedTerms:   st.IndexedTerms,
		ExcludedTerms:  st.ExcludedTerms,
		Failures:       run.failures,
	}
	b.logger.Info("build complete",
		"documents", rep.Documents,
		"failed", len(rep.Failures),
		"near_duplicates", rep.NearDuplicates,
		"distinct_terms", rep.DistinctTerms,
		"indexed_terms", rep.IndexedTerms,
		"excluded_terms", rep.ExcludedTerms,
		"duration", rep.Duration.Round(time.Millisecond),
	)
	return &Result{Index: run.ix, Report: rep}, nil
}

func (b *Builder) process(ctx context.Context, run *buildRun, src Source) {
	if run.aborted.Load() || ctx.Err() != nil {
		return
	}
	tick := time.Now()
	rec, err := b.parse(src)
	if err != nil {
		if errors.Is(err, apperrors.ErrDocumentUnreadable) {
			b.logger.Warn("document skipped", "doc_id", src.ID(), "error", err)
			run.mu.Lock()
			run.failures = append(run.failures, Failure{DocID: src.ID(), Error: err.Error()})
			run.mu.Unlock()
			if b.metrics != nil {
				b.metrics.DocsFailedTotal.Inc()
			}
			return
		}
		run.fail(err)
		return
	}

	if b.cfg.SkipNearDuplicates && rec.Fingerprint != 0 {
		if first, loaded := run.seen.LoadOrStore(rec.Fingerprint, rec.DocID); loaded {
			b.logger.Info("near-duplicate document skipped", "doc_id", rec.DocID, "duplicate_of", first)
			run.mu.Lock()
			run.nearDups++
			run.mu.Unlock()
			b.observeSkipped(1)
			return
		}
	}

	if err := run.ix.Merge(rec); err != nil {
		run.fail(err)
		return
	}
	if b.metrics != nil {
		b.metrics.DocsIndexedTotal.Inc()
		b.metrics.TermsIndexedTotal.Add(float64(rec.Indexed))
		b.metrics.TermsExcluded.Add(float64(rec.Excluded))
	}
	b.logger.Debug("document merged",
		"doc_id", rec.DocID,
		"lemmas", len(rec.Lemmas),
		"indexed", rec.Indexed,
		"excluded", rec.Excluded,
		"took", time.Since(tick),
	)
}

func (b *Builder) parse(src Source) (*parser.Record, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w: %w", src.ID(), apperrors.ErrDocumentUnreadable, err)
	}
	defer rc.Close()
	return parser.Parse(src.ID(), rc, b.normalizer)
}

func (b *Builder) observePhase(phase string, d time.Duration) {
	if b.metrics != nil {
		b.metrics.BuildDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
}

func (b *Builder) observeSkipped(n int) {
	if b.metrics != nil && n > 0 {
		b.metrics.DocsSkippedTotal.Add(float64(n))
	}
}
