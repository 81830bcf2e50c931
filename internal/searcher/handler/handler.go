package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/reload"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
)

const defaultTopTerms = 10

// EngineSource yields the engine to answer from; nil means no index is loaded.
type EngineSource interface {
	Current() *reload.Engine
}

type Handler struct {
	engines      EngineSource
	normalizer   normalizer.Normalizer
	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates the search API handler. queryCache and m may be nil.
func New(engines EngineSource, n normalizer.Normalizer, queryCache *cache.QueryCache, m *metrics.Metrics, defaultLimit, maxResults int) *Handler {
	return &Handler{
		engines:      engines,
		normalizer:   n,
		cache:        queryCache,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

type searchResponse struct {
	*executor.SearchResult
	CacheHit  bool  `json:"cache_hit"`
	LatencyMS int64 `json:"latency_ms"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode, err := parser.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "mode must be one of standard, phrase, both")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	eng := h.engines.Current()
	if eng == nil {
		h.writeError(w, http.StatusServiceUnavailable, "no index loaded")
		return
	}

	plan := parser.Parse(query, h.normalizer)
	if mode != "" {
		plan.Mode = mode
	}

	var (
		result   *executor.SearchResult
		cacheHit bool
	)
	compute := func() (*executor.SearchResult, error) {
		return eng.Execute(ctx, plan, limit)
	}
	if h.cache != nil && !plan.Empty() {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, cache.Key(plan, limit, eng.Generation()), compute)
		if err == nil && cacheHit {
			// Cached entries are shared; report this request's own wording.
			own := *result
			own.Query = plan.Raw
			own.Lemmas = plan.Lemmas
			result = &own
		}
	} else {
		result, err = compute()
	}
	if err != nil {
		h.observe(plan.Mode, "error", start, 0)
		log.Error("search execution failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	returned := 0
	for _, hits := range []*executor.Hits{result.Standard, result.Phrase} {
		if hits != nil {
			returned += len(hits.Results)
		}
	}
	resultType := "hit"
	if result.TotalHits() == 0 {
		resultType = "zero_result"
	}
	h.observe(plan.Mode, resultType, start, returned)

	latency := time.Since(start)
	log.Info("search completed",
		"query", query,
		"mode", plan.Mode,
		"total_hits", result.TotalHits(),
		"returned", returned,
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, searchResponse{
		SearchResult: result,
		CacheHit:     cacheHit,
		LatencyMS:    latency.Milliseconds(),
	})
}

type termInfo struct {
	Lemma              string `json:"lemma"`
	DocumentFrequency  int    `json:"document_frequency"`
	TotalTermFrequency int    `json:"total_term_frequency"`
}

type indexStatsResponse struct {
	index.Stats
	Path       string     `json:"path"`
	CreatedAt  time.Time  `json:"created_at"`
	LoadedAt   time.Time  `json:"loaded_at"`
	Compressed bool       `json:"compressed"`
	TopTerms   []termInfo `json:"top_terms"`
}

// IndexStats reports the counters of the served index and its most frequent
// lemmas (?top=N, default 10).
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	eng := h.engines.Current()
	if eng == nil {
		h.writeError(w, http.StatusServiceUnavailable, "no index loaded")
		return
	}
	top := defaultTopTerms
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}

	ix := eng.Index()
	resp := indexStatsResponse{
		Stats:      ix.Stats(),
		Path:       eng.Path,
		CreatedAt:  eng.Header.CreatedAt,
		LoadedAt:   eng.LoadedAt,
		Compressed: eng.Header.Compressed(),
		TopTerms:   []termInfo{},
	}
	if top > 0 {
		for _, e := range ix.TopTerms(top) {
			resp.TopTerms = append(resp.TopTerms, termInfo{
				Lemma:              e.Lemma,
				DocumentFrequency:  e.DocumentFrequency,
				TotalTermFrequency: e.TotalTermFrequency,
			})
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	st := h.cache.Stats()
	hits := st.LocalHits + st.RemoteHits
	total := hits + st.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"local_hits":  st.LocalHits,
		"remote_hits": st.RemoteHits,
		"misses":      st.Misses,
		"total":       total,
		"entries":     st.Entries,
		"remote":      st.Remote,
		"hit_rate":    strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) observe(mode parser.Mode, resultType string, start time.Time, returned int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(string(mode), resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		h.metrics.SearchResultsCount.Observe(float64(returned))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
