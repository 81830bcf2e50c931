// Package metrics defines the Prometheus collectors for the index builder and
// the search service, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	CacheHitsTotal     *prometheus.CounterVec
	CacheMissesTotal   prometheus.Counter
	IndexReloadsTotal  *prometheus.CounterVec

	DocsIndexedTotal  prometheus.Counter
	DocsFailedTotal   prometheus.Counter
	DocsSkippedTotal  prometheus.Counter
	TermsIndexedTotal prometheus.Counter
	TermsExcluded     prometheus.Counter
	BuildDuration     *prometheus.HistogramVec
	IndexDistinctTerm prometheus.Gauge
	IndexDocuments    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them with reg. Passing nil uses
// the process-wide default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by mode and result type (hit, zero_result, error).",
			},
			[]string{"mode", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits by tier.",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		IndexReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_reloads_total",
				Help: "Index file reloads by status.",
			},
			[]string{"status"},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents merged into the index.",
			},
		),
		DocsFailedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_failed_total",
				Help: "Documents that could not be read or parsed.",
			},
		),
		DocsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_skipped_total",
				Help: "Source files ignored by extension or as near duplicates.",
			},
		),
		TermsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "terms_indexed_total",
				Help: "Term occurrences kept by the normalizer.",
			},
		),
		TermsExcluded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "terms_excluded_total",
				Help: "Term occurrences dropped by the normalizer.",
			},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "index_build_duration_seconds",
				Help:    "Index build phase duration in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"phase"},
		),
		IndexDistinctTerm: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_distinct_terms",
				Help: "Distinct lemmas in the served index.",
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Documents in the served index.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IndexReloadsTotal,
		m.DocsIndexedTotal,
		m.DocsFailedTotal,
		m.DocsSkippedTotal,
		m.TermsIndexedTotal,
		m.TermsExcluded,
		m.BuildDuration,
		m.IndexDistinctTerm,
		m.IndexDocuments,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler returns the Prometheus scrape HTTP handler for the registry the
// collectors were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
