package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
)

func testConfig(workers int) config.IndexerConfig {
	return config.IndexerConfig{Workers: workers, Extensions: []string{".txt"}}
}

func english() normalizer.Normalizer {
	return normalizer.NewEnglish(config.NormalizerConfig{MinLength: 1})
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestBuildDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"A.txt":     "The cat and the dog.",
		"B.txt":     "A cat!",
		"C.txt":     "Nothing here but birds.",
		"notes.md":  "cat cat cat",
		"empty.txt": "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	b := NewBuilder(testConfig(4), english())
	res, err := b.Build(context.Background(), dir)
	require.NoError(t, err)

	rep := res.Report
	require.Equal(t, 4, rep.Documents)
	require.Equal(t, 2, rep.Skipped)
	require.Empty(t, rep.Failures)
	require.True(t, res.Index.Scored())
	require.True(t, res.Index.HasDoc("empty"))

	cat, ok := res.Index.Term("cat")
	require.True(t, ok)
	require.Equal(t, 2, cat.DocumentFrequency)
	p, _ := res.Index.Posting("cat", "A")
	require.Equal(t, 2.0, p.TFIDF)
	p, _ = res.Index.Posting("dog", "A")
	require.Equal(t, 4.0, p.TFIDF)
	require.Greater(t, rep.ExcludedTerms, 0)
}

func TestBuildMissingDirectory(t *testing.T) {
	_, err := NewBuilder(testConfig(1), english()).Build(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func corpus(n int) []Source {
	words := []string{"river", "mountain", "forest", "valley", "ocean", "desert", "island", "glacier"}
	out := make([]Source, 0, n)
	for i := 0; i < n; i++ {
		text := ""
		for j := 0; j < 40; j++ {
			text += words[(i*7+j*3)%len(words)] + " "
			if j%9 == 0 {
				text += "\n"
			}
		}
		out = append(out, TextSource(fmt.Sprintf("doc-%03d", i), text))
	}
	return out
}

func TestConcurrentBuildMatchesSingleWorker(t *testing.T) {
	docs := corpus(120)
	one, err := NewBuilder(testConfig(1), english()).BuildSources(context.Background(), docs)
	require.NoError(t, err)
	many, err := NewBuilder(testConfig(16), english()).BuildSources(context.Background(), docs)
	require.NoError(t, err)

	require.True(t, one.Index.Equal(many.Index))
	require.Equal(t, one.Report.IndexedTerms, many.Report.IndexedTerms)
}

func TestDuplicateDocumentIsFatal(t *testing.T) {
	sources := append(corpus(5), TextSource("doc-002", "another body"))
	_, err := NewBuilder(testConfig(3), english()).BuildSources(context.Background(), sources)
	require.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
}

type brokenSource struct {
	id      string
	openErr error
}

func (b brokenSource) ID() string { return b.id }
func (b brokenSource) Open() (io.ReadCloser, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return io.NopCloser(&errReader{}), nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("bad sector") }

func TestUnreadableDocumentsAreSkipped(t *testing.T) {
	sources := append(corpus(3),
		brokenSource{id: "gone", openErr: os.ErrNotExist},
		brokenSource{id: "bad"},
	)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	res, err := NewBuilder(testConfig(2), english(), WithMetrics(m)).BuildSources(context.Background(), sources)
	require.NoError(t, err)
	require.Equal(t, 3, res.Report.Documents)
	require.Len(t, res.Report.Failures, 2)
	require.Equal(t, "bad", res.Report.Failures[0].DocID)
	require.Equal(t, "gone", res.Report.Failures[1].DocID)
	require.False(t, res.Index.HasDoc("bad"))
}

func TestCancelledBuild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(testConfig(2), english()).BuildSources(ctx, corpus(10))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSkipNearDuplicates(t *testing.T) {
	cfg := testConfig(1)
	cfg.SkipNearDuplicates = true
	sources := []Source{
		TextSource("first", "Rivers run to the sea through green valleys"),
		TextSource("copy", "Rivers run to the sea through green valleys"),
		TextSource("other", "Glaciers carve mountains over many centuries"),
	}
	res, err := NewBuilder(cfg, english()).BuildSources(context.Background(), sources)
	require.NoError(t, err)
	require.Equal(t, 2, res.Report.Documents)
	require.Equal(t, 1, res.Report.NearDuplicates)
	require.Zero(t, res.Report.Skipped)
	require.True(t, res.Index.HasDoc("first"))
	require.False(t, res.Index.HasDoc("copy"))
}

func TestDirSources(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"b.txt": "", "a.md": "", "a.txt": "", ".txt": ""})
	srcs, skipped, err := DirSources(dir, []string{".txt", ".md"})
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	ids := make([]string, 0, len(srcs))
	for _, s := range srcs {
		ids = append(ids, s.ID())
	}
	require.Equal(t, []string{"a", "a", "b"}, ids)
}
