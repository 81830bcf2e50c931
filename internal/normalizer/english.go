package normalizer

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/surgebase/porter2"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
)

// English is the default Normalizer. It lower-cases the line, splits it into
// word and punctuation runs, drops punctuation, tokens with non-letter
// characters, stop words and closed-class function words, then reduces what
// is left with the Porter2 stemmer.
type English struct {
	exclude   map[string]struct{}
	minLength int
	markup    *bluemonday.Policy
}

// NewEnglish builds the default normalizer. Extra stop words from cfg are
// added to the built-in lists.
func NewEnglish(cfg config.NormalizerConfig) *English {
	exclude := make(map[string]struct{}, len(stopWords)+len(closedClass)+len(cfg.StopWords))
	for _, w := range stopWords {
		exclude[w] = struct{}{}
	}
	for _, w := range closedClass {
		exclude[w] = struct{}{}
	}
	for _, w := range cfg.StopWords {
		exclude[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	e := &English{
		exclude:   exclude,
		minLength: cfg.MinLength,
	}
	if e.minLength < 1 {
		e.minLength = 1
	}
	if cfg.StripMarkup {
		e.markup = bluemonday.StrictPolicy()
	}
	return e
}

func (e *English) Normalize(line string) []Term {
	if e.markup != nil {
		line = html.UnescapeString(e.markup.Sanitize(line))
	}
	line = strings.ToLower(strings.TrimSpace(line))
	tokens := splitWordPunct(line)
	terms := make([]Term, 0, len(tokens))
	for _, tok := range tokens {
		if !e.keep(tok) {
			terms = append(terms, Term{Lemma: tok})
			continue
		}
		terms = append(terms, Term{Lemma: porter2.Stem(tok), Retained: true})
	}
	return terms
}

func (e *English) keep(tok string) bool {
	if utf8.RuneCountInString(tok) < e.minLength {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	_, excluded := e.exclude[tok]
	return !excluded
}

// splitWordPunct splits s into maximal runs of word characters (letters,
// digits, underscore) and maximal runs of other non-space characters.
func splitWordPunct(s string) []string {
	var tokens []string
	start := -1
	var startWord bool
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}
		word := isWordRune(r)
		switch {
		case start < 0:
			start, startWord = i, word
		case word != startWord:
			tokens = append(tokens, s[start:i])
			start, startWord = i, word
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
