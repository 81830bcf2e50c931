package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

// Score computes tf*idf for every posting, with idf = TotalDocs /
// DocumentFrequency. It must run once, after the last Merge; a second call
// returns ErrAlreadyScored and changes nothing.
func (ix *Index) Score() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.scored {
		return apperrors.ErrAlreadyScored
	}
	if err := ix.applyTFIDF(); err != nil {
		return err
	}
	ix.scored = true
	return nil
}

// applyTFIDF adds tf*idf into each posting. It accumulates, so running it
// twice doubles every value. Caller holds ix.mu.
func (ix *Index) applyTFIDF() error {
	total := len(ix.docs)
	for lemma, e := range ix.terms {
		if e.DocumentFrequency == 0 || e.DocumentFrequency != len(e.Postings) {
			return fmt.Errorf("scoring %q: %w: document frequency %d, %d postings",
				lemma, apperrors.ErrCorruptIndex, e.DocumentFrequency, len(e.Postings))
		}
	}
	for _, e := range ix.terms {
		w := idf(total, e.DocumentFrequency)
		for _, p := range e.Postings {
			p.TFIDF += float64(p.TermFrequency) * w
		}
	}
	return nil
}

func idf(totalDocs, df int) float64 {
	return float64(totalDocs) / float64(df)
}

// IDF returns the inverse document frequency of lemma, or 0 when absent.
func (ix *Index) IDF(lemma string) float64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.terms[lemma]
	if !ok || e.DocumentFrequency == 0 {
		return 0
	}
	return idf(len(ix.docs), e.DocumentFrequency)
}
