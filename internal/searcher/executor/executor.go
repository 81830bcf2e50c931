// Package executor answers standard and phrase queries against a scored,
// read-only index.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

const DefaultLimit = 10

// Hits is the ranked answer of one query kind.
type Hits struct {
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
}

type SearchResult struct {
	Query     string         `json:"query"`
	Lemmas    []string       `json:"lemmas"`
	Mode      parser.Mode    `json:"mode"`
	Standard  *Hits          `json:"standard,omitempty"`
	Phrase    *Hits          `json:"phrase,omitempty"`
	TermStats map[string]int `json:"term_stats"`
}

// TotalHits sums the hits of every query kind that ran.
func (r *SearchResult) TotalHits() int {
	total := 0
	if r.Standard != nil {
		total += r.Standard.TotalHits
	}
	if r.Phrase != nil {
		total += r.Phrase.TotalHits
	}
	return total
}

// Executor holds no locks; the index must not change while it is in use.
type Executor struct {
	ix     *index.Index
	scored bool
	logger *slog.Logger
}

func New(ix *index.Index) *Executor {
	return &Executor{
		ix:     ix,
		scored: ix.Scored(),
		logger: slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) Index() *index.Index { return e.ix }

// Standard ranks every document containing at least one query lemma by the
// sum of its tf*idf over the distinct lemmas.
func (e *Executor) Standard(lemmas []string, limit int) []ranker.ScoredDoc {
	return ranker.TopK(e.standard(lemmas), limitOrDefault(limit))
}

// Phrase ranks the documents in which the lemmas occur contiguously and in
// query order.
func (e *Executor) Phrase(lemmas []string, limit int) []ranker.ScoredDoc {
	return ranker.TopK(e.phrase(lemmas), limitOrDefault(limit))
}

// Execute runs plan in its mode. An empty plan yields empty results.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.scored {
		return nil, fmt.Errorf("executing query: %w", apperrors.ErrNotScored)
	}
	mode := plan.Mode
	if mode == "" {
		mode = parser.ModeStandard
	}
	limit = limitOrDefault(limit)

	result := &SearchResult{
		Query:     plan.Raw,
		Lemmas:    plan.Lemmas,
		Mode:      mode,
		TermStats: make(map[string]int),
	}
	for _, lemma := range plan.Distinct() {
		df := 0
		if entry, ok := e.ix.Term(lemma); ok {
			df = entry.DocumentFrequency
		}
		result.TermStats[lemma] = df
	}

	switch mode {
	case parser.ModeStandard:
		result.Standard = hits(e.standard(plan.Lemmas), limit)
	case parser.ModePhrase:
		result.Phrase = hits(e.phrase(plan.Lemmas), limit)
	case parser.ModeBoth:
		result.Standard = hits(e.standard(plan.Lemmas), limit)
		result.Phrase = hits(e.phrase(plan.Lemmas), limit)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidInput, mode)
	}

	e.logger.Debug("query executed",
		"query", plan.Raw,
		"mode", mode,
		"lemmas", len(plan.Lemmas),
		"total_hits", result.TotalHits(),
	)
	return result, nil
}

func hits(scores map[string]float64, limit int) *Hits {
	return &Hits{TotalHits: len(scores), Results: ranker.TopK(scores, limit)}
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func distinct(lemmas []string) []string {
	return (&parser.QueryPlan{Lemmas: lemmas}).Distinct()
}

func (e *Executor) standard(lemmas []string) map[string]float64 {
	scores := make(map[string]float64)
	for _, lemma := range distinct(lemmas) {
		entry, ok := e.ix.Term(lemma)
		if !ok {
			continue
		}
		for doc, p := range entry.Postings {
			scores[doc] += p.TFIDF
		}
	}
	return scores
}

func (e *Executor) phrase(lemmas []string) map[string]float64 {
	scores := make(map[string]float64)
	uniq := distinct(lemmas)
	if len(uniq) == 0 {
		return scores
	}

	entries := make([]*index.TermEntry, 0, len(uniq))
	for _, lemma := range uniq {
		entry, ok := e.ix.Term(lemma)
		if !ok {
			return scores
		}
		entries = append(entries, entry)
	}
	// Walk the rarest lemma's postings; the others are membership checks.
	rarest := entries[0]
	for _, entry := range entries[1:] {
		if entry.DocumentFrequency < rarest.DocumentFrequency {
			rarest = entry
		}
	}

candidates:
	for doc := range rarest.Postings {
		var score float64
		for _, entry := range entries {
			p, ok := entry.Postings[doc]
			if !ok {
				continue candidates
			}
			score += p.TFIDF
		}
		if e.matchesPhrase(lemmas, doc) {
			scores[doc] = score
		}
	}
	return scores
}

// matchesPhrase anchors on the query lemma with the fewest occurrences in doc
// and checks that every other lemma sits at the same offset from it as in the
// query. doc must contain every lemma.
func (e *Executor) matchesPhrase(lemmas []string, doc string) bool {
	postings := make([]*index.Posting, len(lemmas))
	pivot := 0
	for i, lemma := range lemmas {
		p, ok := e.ix.Posting(lemma, doc)
		if !ok {
			return false
		}
		postings[i] = p
		if p.TermFrequency < postings[pivot].TermFrequency {
			pivot = i
		}
	}

anchors:
	for _, anchor := range postings[pivot].Positions {
		for i, p := range postings {
			if i == pivot {
				continue
			}
			want := anchor + (i - pivot)
			if want < 0 || !hasPosition(p.Positions, want) {
				continue anchors
			}
		}
		return true
	}
	return false
}

func hasPosition(positions []int, want int) bool {
	i := sort.SearchInts(positions, want)
	return i < len(positions) && positions[i] == want
}
