// Package parser turns raw query text into a QueryPlan using the same
// Normalizer that built the index.
package parser

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

type Mode string

const (
	ModeStandard Mode = "standard"
	ModePhrase   Mode = "phrase"
	ModeBoth     Mode = "both"
)

// QueryPlan is a normalized query. Lemmas keep query order and repeats,
// which phrase matching relies on.
type QueryPlan struct {
	Raw    string
	Lemmas []string
	Mode   Mode
}

// ParseMode accepts "standard", "phrase", "both", or "" (no override).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeStandard, ModePhrase, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidInput, s)
	}
}

// Parse normalizes raw. A query wrapped in double quotes is a phrase query;
// anything else is a standard query.
func Parse(raw string, n normalizer.Normalizer) *QueryPlan {
	plan := &QueryPlan{Raw: raw, Mode: ModeStandard}
	text := strings.TrimSpace(raw)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		plan.Mode = ModePhrase
		text = text[1 : len(text)-1]
	}
	plan.Lemmas = normalizer.Lemmas(n, text)
	return plan
}

// Distinct returns the plan's lemmas with repeats removed, first occurrence
// first.
func (p *QueryPlan) Distinct() []string {
	seen := make(map[string]struct{}, len(p.Lemmas))
	out := make([]string, 0, len(p.Lemmas))
	for _, l := range p.Lemmas {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func (p *QueryPlan) Empty() bool { return len(p.Lemmas) == 0 }
