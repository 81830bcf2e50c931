// Package index holds the in-memory inverted index: lemma -> per-document
// postings with positions, plus corpus counters. Builders merge records into
// it concurrently; after Score (or after loading from disk) it is read-only
// and safe for lock-free concurrent queries.
package index

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

type Index struct {
	mu            sync.Mutex
	terms         map[string]*TermEntry
	docs          map[string]struct{}
	indexedTerms  int
	excludedTerms int
	scored        bool
}

func New() *Index {
	return &Index{
		terms: make(map[string]*TermEntry),
		docs:  make(map[string]struct{}),
	}
}

// Merge folds one parsed document into the index. The record is checked in
// full before anything is written, so a rejected record leaves the index
// unchanged. A document ID seen before fails with ErrDuplicateDocument.
func (ix *Index) Merge(rec *parser.Record) error {
	if rec == nil || rec.DocID == "" {
		return fmt.Errorf("merging record: %w: empty document id", apperrors.ErrCorruptIndex)
	}
	if err := checkRecord(rec); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.scored {
		return fmt.Errorf("merging %q: %w", rec.DocID, apperrors.ErrAlreadyScored)
	}
	if _, seen := ix.docs[rec.DocID]; seen {
		return fmt.Errorf("merging %q: %w", rec.DocID, apperrors.ErrDuplicateDocument)
	}

	for lemma, positions := range rec.Lemmas {
		entry, ok := ix.terms[lemma]
		if !ok {
			entry = &TermEntry{
				Lemma:    lemma,
				Postings: make(map[string]*Posting),
			}
			ix.terms[lemma] = entry
		}
		entry.Postings[rec.DocID] = &Posting{
			TermFrequency: len(positions),
			Positions:     positions,
		}
		entry.DocumentFrequency++
		entry.TotalTermFrequency += len(positions)
	}
	ix.docs[rec.DocID] = struct{}{}
	ix.indexedTerms += rec.Indexed
	ix.excludedTerms += rec.Excluded
	return nil
}

func checkRecord(rec *parser.Record) error {
	for lemma, positions := range rec.Lemmas {
		if lemma == "" || len(positions) == 0 {
			return fmt.Errorf("merging %q: %w: lemma %q has no positions", rec.DocID, apperrors.ErrCorruptIndex, lemma)
		}
		for i := 1; i < len(positions); i++ {
			if positions[i] <= positions[i-1] {
				return fmt.Errorf("merging %q: %w: positions of %q not increasing", rec.DocID, apperrors.ErrCorruptIndex, lemma)
			}
		}
	}
	return nil
}

// Term returns the entry for lemma. Call only on a read-only index.
func (ix *Index) Term(lemma string) (*TermEntry, bool) {
	e, ok := ix.terms[lemma]
	return e, ok
}

// Posting returns lemma's posting in docID, if any.
func (ix *Index) Posting(lemma, docID string) (*Posting, bool) {
	e, ok := ix.terms[lemma]
	if !ok {
		return nil, false
	}
	p, ok := e.Postings[docID]
	return p, ok
}

// HasDoc reports whether docID was merged, including documents with no lemmas.
func (ix *Index) HasDoc(docID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.docs[docID]
	return ok
}

func (ix *Index) Scored() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.scored
}

func (ix *Index) Stats() Stats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return Stats{
		TotalDocs:     len(ix.docs),
		DistinctTerms: len(ix.terms),
		IndexedTerms:  ix.indexedTerms,
		ExcludedTerms: ix.excludedTerms,
		Scored:        ix.scored,
	}
}

// Lemmas returns every lemma in ascending order.
func (ix *Index) Lemmas() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]string, 0, len(ix.terms))
	for l := range ix.terms {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Docs returns every merged document ID in ascending order.
func (ix *Index) Docs() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.sortedDocsLocked()
}

func (ix *Index) sortedDocsLocked() []string {
	out := make([]string, 0, len(ix.docs))
	for d := range ix.docs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// TopTerms returns up to n entries ordered by document frequency, then total
// term frequency, descending, then lemma ascending.
func (ix *Index) TopTerms(n int) []*TermEntry {
	ix.mu.Lock()
	entries := make([]*TermEntry, 0, len(ix.terms))
	for _, e := range ix.terms {
		entries = append(entries, e)
	}
	ix.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.DocumentFrequency != b.DocumentFrequency {
			return a.DocumentFrequency > b.DocumentFrequency
		}
		if a.TotalTermFrequency != b.TotalTermFrequency {
			return a.TotalTermFrequency > b.TotalTermFrequency
		}
		return a.Lemma < b.Lemma
	})
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

func (ix *Index) Snapshot() Snapshot {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return Snapshot{
		TotalDocs:     len(ix.docs),
		IndexedTerms:  ix.indexedTerms,
		ExcludedTerms: ix.excludedTerms,
		Scored:        ix.scored,
		Docs:          ix.sortedDocsLocked(),
		Terms:         ix.terms,
	}
}

// FromSnapshot rebuilds an index from decoded parts and validates it. The
// snapshot's maps are adopted, not copied.
func FromSnapshot(s Snapshot) (*Index, error) {
	ix := &Index{
		terms:         s.Terms,
		docs:          make(map[string]struct{}, len(s.Docs)),
		indexedTerms:  s.IndexedTerms,
		excludedTerms: s.ExcludedTerms,
		scored:        s.Scored,
	}
	if ix.terms == nil {
		ix.terms = make(map[string]*TermEntry)
	}
	for _, d := range s.Docs {
		if _, dup := ix.docs[d]; dup {
			return nil, fmt.Errorf("%w: document %q listed twice", apperrors.ErrCorruptIndex, d)
		}
		ix.docs[d] = struct{}{}
	}
	if s.TotalDocs != len(ix.docs) {
		return nil, fmt.Errorf("%w: total_docs %d but %d documents listed",
			apperrors.ErrCorruptIndex, s.TotalDocs, len(ix.docs))
	}
	if err := ix.Validate(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Equal reports whether two indexes hold the same documents, counters,
// entries and postings.
func (ix *Index) Equal(other *Index) bool {
	if ix == other {
		return true
	}
	if ix == nil || other == nil {
		return false
	}
	return reflect.DeepEqual(ix.Snapshot(), other.Snapshot())
}
