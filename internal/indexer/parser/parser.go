// Package parser turns one document into a Record: the positions of every
// retained lemma plus the document's indexed and excluded term counts.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mfonda/simhash"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

// Record is the parse result of a single document. It is consumed once by
// Index.Merge.
type Record struct {
	DocID string
	// Lemmas maps each lemma to its strictly increasing positions. Positions
	// count retained terms only.
	Lemmas   map[string][]int
	Indexed  int
	Excluded int
	// Fingerprint is a simhash over the retained lemmas, used for optional
	// near-duplicate detection.
	Fingerprint uint64
}

// Parse reads r line by line through n. Lines may be of any length. A read
// failure is reported as ErrDocumentUnreadable.
func Parse(docID string, r io.Reader, n normalizer.Normalizer) (*Record, error) {
	rec := &Record{
		DocID:  docID,
		Lemmas: make(map[string][]int),
	}
	var sig strings.Builder
	br := bufio.NewReader(r)
	pos := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			for _, term := range n.Normalize(line) {
				if !term.Retained {
					rec.Excluded++
					continue
				}
				rec.Lemmas[term.Lemma] = append(rec.Lemmas[term.Lemma], pos)
				pos++
				sig.WriteString(term.Lemma)
				sig.WriteByte(' ')
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading document %q: %w: %w", docID, apperrors.ErrDocumentUnreadable, err)
		}
	}
	rec.Indexed = pos
	if sig.Len() > 0 {
		rec.Fingerprint = simhash.Simhash(simhash.NewWordFeatureSet([]byte(sig.String())))
	}
	return rec, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(docID, text string, n normalizer.Normalizer) (*Record, error) {
	return Parse(docID, strings.NewReader(text), n)
}
