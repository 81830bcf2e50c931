package main

import (
	"fmt"
	"io"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/ranker"
)

const suggestionTerms = 500

func queryCommand(c *cli.Context) error {
	exec, _, path, err := openIndex(c)
	if err != nil {
		return err
	}
	n := normalizer.NewEnglish(appConfig(c).Normalizer)
	limit := c.Int("limit")
	w := c.App.Writer

	if c.Args().Present() {
		runQuery(w, exec, n, strings.Join(c.Args().Slice(), " "), limit)
		return nil
	}

	st := exec.Index().Stats()
	fmt.Fprintf(w, "%s: %d documents, %d lemmas. Type a query, or \"exit\" to quit.\n", path, st.TotalDocs, st.DistinctTerms)
	suggestions := lemmaSuggestions(exec)
	p := prompt.New(
		func(in string) {
			if isExit(in) {
				return
			}
			runQuery(w, exec, n, in, limit)
		},
		func(d prompt.Document) []prompt.Suggest {
			word := d.GetWordBeforeCursor()
			if word == "" {
				return nil
			}
			return prompt.FilterHasPrefix(suggestions, strings.ToLower(word), true)
		},
		prompt.OptionPrefix("> "),
		prompt.OptionTitle("lemmactl"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && isExit(in)
		}),
	)
	p.Run()
	return nil
}

func isExit(in string) bool {
	switch strings.TrimSpace(in) {
	case "exit", "quit":
		return true
	}
	return false
}

func lemmaSuggestions(exec *executor.Executor) []prompt.Suggest {
	top := exec.Index().TopTerms(suggestionTerms)
	out := make([]prompt.Suggest, 0, len(top))
	for _, e := range top {
		out = append(out, prompt.Suggest{Text: e.Lemma, Description: fmt.Sprintf("%d docs", e.DocumentFrequency)})
	}
	return out
}

// runQuery answers text both ways and prints each ranking.
func runQuery(w io.Writer, exec *executor.Executor, n normalizer.Normalizer, text string, limit int) {
	lemmas := normalizer.Lemmas(n, text)
	if len(lemmas) == 0 {
		fmt.Fprintln(w, "no searchable words in query")
		return
	}
	fmt.Fprintf(w, "lemmas: %s\n", strings.Join(lemmas, " "))
	printRanking(w, "standard", exec.Standard(lemmas, limit))
	printRanking(w, "phrase", exec.Phrase(lemmas, limit))
}

func printRanking(w io.Writer, kind string, docs []ranker.ScoredDoc) {
	fmt.Fprintf(w, "%s results (%d):\n", kind, len(docs))
	if len(docs) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for i, d := range docs {
		fmt.Fprintf(w, "  %2d. %-30s %.4f\n", i+1, d.DocID, d.Score)
	}
}
