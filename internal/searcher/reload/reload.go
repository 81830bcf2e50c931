// Package reload owns the index the search service answers from. A loaded
// index file becomes an immutable Engine; a newer file announced on Kafka is
// loaded off to the side and swapped in atomically.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
)

// Engine is one loaded index file.
type Engine struct {
	*executor.Executor
	Path     string
	Header   segment.Header
	LoadedAt time.Time
}

// Generation identifies the index file; replicas serving the same file agree
// on it.
func (e *Engine) Generation() int64 {
	return e.Header.CreatedAt.UnixNano()
}

// Invalidator drops results computed against a previous engine.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Manager struct {
	path    string
	current atomic.Pointer[Engine]
	loadMu  sync.Mutex
	cache   Invalidator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Manager)

func WithCache(c Invalidator) Option {
	return func(m *Manager) { m.cache = c }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// NewManager serves the index file at path. Nothing is loaded until Load.
func NewManager(path string, opts ...Option) *Manager {
	m := &Manager{
		path:   path,
		logger: slog.Default().With("component", "index-reload"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the engine in service, or nil before the first load.
func (m *Manager) Current() *Engine {
	return m.current.Load()
}

// Load reads the index file at path ("" means the configured path) and swaps
// it in. On any error the current engine stays in service.
func (m *Manager) Load(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		path = m.path
	}
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	start := time.Now()
	ix, hdr, err := segment.ReadFile(path)
	if err != nil {
		m.observe("error")
		return nil, fmt.Errorf("loading index %s: %w", path, err)
	}
	if !ix.Scored() {
		m.observe("error")
		return nil, fmt.Errorf("loading index %s: %w", path, apperrors.ErrNotScored)
	}

	eng := &Engine{
		Executor: executor.New(ix),
		Path:     path,
		Header:   hdr,
		LoadedAt: time.Now(),
	}
	prev := m.current.Swap(eng)

	if m.cache != nil && prev != nil {
		if err := m.cache.Invalidate(ctx); err != nil {
			m.logger.Warn("cache invalidation after reload failed", "error", err)
		}
	}
	st := ix.Stats()
	if m.metrics != nil {
		m.metrics.IndexDocuments.Set(float64(st.TotalDocs))
		m.metrics.IndexDistinctTerm.Set(float64(st.DistinctTerms))
	}
	m.observe("success")
	m.logger.Info("index loaded",
		"path", path,
		"documents", st.TotalDocs,
		"distinct_terms", st.DistinctTerms,
		"created_at", hdr.CreatedAt,
		"compressed", hdr.Compressed(),
		"duration", time.Since(start),
	)
	return eng, nil
}

// HandleIndexComplete returns a Kafka MessageHandler that reloads when the
// announced file is newer than the one in service. Undecodable messages are
// logged and dropped; load failures are returned so the message is retried.
func (m *Manager) HandleIndexComplete() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[indexer.CompleteEvent](value)
		if err != nil {
			m.logger.Error("failed to decode index-complete event", "error", err, "key", string(key))
			return nil
		}
		if cur := m.Current(); cur != nil && !event.CreatedAt.After(cur.Header.CreatedAt) {
			m.logger.Debug("ignoring stale index announcement",
				"run_id", event.RunID,
				"announced", event.CreatedAt,
				"serving", cur.Header.CreatedAt,
			)
			m.observe("stale")
			return nil
		}
		m.logger.Info("index rebuild announced", "run_id", event.RunID, "path", event.Path, "documents", event.Documents)
		if _, err := m.Load(ctx, event.Path); err != nil {
			return err
		}
		return nil
	}
}

// Check reports down until an index is loaded.
func (m *Manager) Check(ctx context.Context) health.ComponentHealth {
	eng := m.Current()
	if eng == nil {
		return health.ComponentHealth{Status: health.StatusDown, Message: "no index loaded"}
	}
	st := eng.Index().Stats()
	return health.ComponentHealth{
		Status:  health.StatusUp,
		Message: fmt.Sprintf("%d documents, %d terms, built %s", st.TotalDocs, st.DistinctTerms, eng.Header.CreatedAt.Format(time.RFC3339)),
	}
}

func (m *Manager) observe(status string) {
	if m.metrics != nil {
		m.metrics.IndexReloadsTotal.WithLabelValues(status).Inc()
	}
}
