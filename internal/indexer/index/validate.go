package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

// Validate checks the structural invariants of the index and, once scored,
// that every tfidf equals tf * TotalDocs/df. Violations wrap ErrCorruptIndex.
func (ix *Index) Validate() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	total := len(ix.docs)
	for lemma, e := range ix.terms {
		if e == nil {
			return corrupt("lemma %q has no entry", lemma)
		}
		if e.Lemma != lemma {
			return corrupt("entry for %q is labelled %q", lemma, e.Lemma)
		}
		if e.DocumentFrequency != len(e.Postings) || e.DocumentFrequency == 0 {
			return corrupt("lemma %q: document frequency %d, %d postings", lemma, e.DocumentFrequency, len(e.Postings))
		}
		sum := 0
		for doc, p := range e.Postings {
			if _, ok := ix.docs[doc]; !ok {
				return corrupt("lemma %q: posting for unknown document %q", lemma, doc)
			}
			if p == nil || p.TermFrequency < 1 || p.TermFrequency != len(p.Positions) {
				return corrupt("lemma %q doc %q: term frequency does not match positions", lemma, doc)
			}
			for i, pos := range p.Positions {
				if pos < 0 || (i > 0 && pos <= p.Positions[i-1]) {
					return corrupt("lemma %q doc %q: positions not strictly increasing", lemma, doc)
				}
			}
			if ix.scored {
				want := float64(p.TermFrequency) * idf(total, e.DocumentFrequency)
				if p.TFIDF != want {
					return corrupt("lemma %q doc %q: tfidf %v, want %v", lemma, doc, p.TFIDF, want)
				}
			}
			sum += p.TermFrequency
		}
		if sum != e.TotalTermFrequency {
			return corrupt("lemma %q: total term frequency %d, postings sum to %d", lemma, e.TotalTermFrequency, sum)
		}
	}
	return nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrCorruptIndex, fmt.Sprintf(format, args...))
}
