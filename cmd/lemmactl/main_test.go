package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/parser"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
)

func writeIndex(t *testing.T) string {
	t.Helper()
	n := normalizer.NewEnglish(config.NormalizerConfig{MinLength: 1})
	ix := index.New()
	for id, text := range map[string]string{
		"fox":   "The quick brown fox jumps over the lazy dog.",
		"xof":   "A brown dog and a quick fox.",
		"birds": "Birds sing at dawn.",
	} {
		rec, err := parser.ParseString(id, text, n)
		require.NoError(t, err)
		require.NoError(t, ix.Merge(rec))
	}
	require.NoError(t, ix.Score())
	path := filepath.Join(t.TempDir(), "test.lidx")
	_, err := segment.WriteFile(path, ix, segment.EncodeOptions{})
	require.NoError(t, err)
	return path
}

func TestQueryOneShot(t *testing.T) {
	path := writeIndex(t)
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"lemmactl", "--config", "", "query", "--index", path, "quick", "brown", "fox"})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "standard results (2):")
	assert.Contains(t, s, "phrase results (1):")
	assert.Contains(t, s, " 1. fox")
}

func TestQueryNothingSearchable(t *testing.T) {
	path := writeIndex(t)
	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run([]string{"lemmactl", "--config", "", "query", "--index", path, "the", "and"}))
	assert.Contains(t, out.String(), "no searchable words")
}

func TestInspect(t *testing.T) {
	path := writeIndex(t)
	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run([]string{"lemmactl", "--config", "", "inspect", "--index", path, "--top", "3"}))
	s := out.String()
	assert.Contains(t, s, "documents:      3")
	assert.Contains(t, s, "scored:         true")
	assert.Contains(t, s, "top 3 lemmas:")

	out.Reset()
	require.NoError(t, newApp(&out).Run([]string{"lemmactl", "--config", "", "inspect", "--index", path, "--term", "Dog"}))
	assert.Contains(t, out.String(), "df=2")
	assert.Contains(t, out.String(), "xof")
}

func TestOpenMissingIndex(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"lemmactl", "--config", "", "inspect", "--index", filepath.Join(t.TempDir(), "nope.lidx")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening index")
}

func TestQueryLimitDefault(t *testing.T) {
	app := newApp(&bytes.Buffer{})
	var found bool
	for _, cmd := range app.Commands {
		if cmd.Name != "query" {
			continue
		}
		for _, f := range cmd.Flags {
			if names := f.Names(); names[0] == "limit" {
				found = true
				assert.Contains(t, f.String(), "10")
			}
		}
	}
	require.True(t, found)
	require.Equal(t, 10, executor.DefaultLimit)
}
