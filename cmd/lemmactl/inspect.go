package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
)

func inspectCommand(c *cli.Context) error {
	exec, hdr, path, err := openIndex(c)
	if err != nil {
		return err
	}
	ix := exec.Index()
	w := c.App.Writer

	if word := c.String("term"); word != "" {
		lemmas := normalizer.Lemmas(normalizer.NewEnglish(appConfig(c).Normalizer), word)
		if len(lemmas) == 0 {
			return fmt.Errorf("%q is not an indexable word", word)
		}
		entry, ok := ix.Term(lemmas[0])
		if !ok {
			fmt.Fprintf(w, "%s: not in index\n", lemmas[0])
			return nil
		}
		fmt.Fprintf(w, "%s: df=%d total=%d idf=%.4f\n", entry.Lemma, entry.DocumentFrequency, entry.TotalTermFrequency, ix.IDF(entry.Lemma))
		docs := make([]string, 0, len(entry.Postings))
		for doc := range entry.Postings {
			docs = append(docs, doc)
		}
		sort.Strings(docs)
		for _, doc := range docs {
			p := entry.Postings[doc]
			fmt.Fprintf(w, "  %-30s tf=%d tfidf=%.4f positions=%v\n", doc, p.TermFrequency, p.TFIDF, p.Positions)
		}
		return nil
	}

	st := ix.Stats()
	fmt.Fprintf(w, "file:           %s\n", path)
	fmt.Fprintf(w, "format:         v%d compressed=%t payload=%d bytes\n", hdr.Version, hdr.Compressed(), hdr.PayloadSize)
	fmt.Fprintf(w, "created:        %s\n", hdr.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "documents:      %d\n", st.TotalDocs)
	fmt.Fprintf(w, "distinct terms: %d\n", st.DistinctTerms)
	fmt.Fprintf(w, "indexed terms:  %d\n", st.IndexedTerms)
	fmt.Fprintf(w, "excluded terms: %d\n", st.ExcludedTerms)
	fmt.Fprintf(w, "scored:         %t\n", st.Scored)

	if top := c.Int("top"); top > 0 {
		fmt.Fprintf(w, "top %d lemmas:\n", top)
		for i, e := range ix.TopTerms(top) {
			fmt.Fprintf(w, "  %2d. %-20s df=%d total=%d\n", i+1, e.Lemma, e.DocumentFrequency, e.TotalTermFrequency)
		}
	}
	return nil
}
