// Package normalizer turns raw text lines into lemmas. The index builder and
// the query parser depend only on the Normalizer interface, so both sides of
// the index always agree on how text is reduced.
package normalizer

// Term is one token of a line after normalization. Excluded tokens are still
// reported so callers can count them; only retained terms take a position.
type Term struct {
	Lemma    string
	Retained bool
}

// Normalizer reduces one line of text to an ordered list of terms.
// Implementations must be safe for concurrent use.
type Normalizer interface {
	Normalize(line string) []Term
}

// Func adapts a plain function to the Normalizer interface.
type Func func(line string) []Term

func (f Func) Normalize(line string) []Term { return f(line) }

// Lemmas returns only the retained lemmas of line, in order.
func Lemmas(n Normalizer, line string) []string {
	terms := n.Normalize(line)
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Retained {
			out = append(out, t.Lemma)
		}
	}
	return out
}
