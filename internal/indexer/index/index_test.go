package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

// record builds a Record from a whitespace-free lemma sequence.
func record(docID string, lemmas ...string) *parser.Record {
	rec := &parser.Record{DocID: docID, Lemmas: make(map[string][]int)}
	for i, l := range lemmas {
		rec.Lemmas[l] = append(rec.Lemmas[l], i)
	}
	rec.Indexed = len(lemmas)
	return rec
}

func catDog(t *testing.T) *Index {
	t.Helper()
	ix := New()
	require.NoError(t, ix.Merge(record("A", "cat", "dog")))
	require.NoError(t, ix.Merge(record("B", "cat")))
	require.NoError(t, ix.Merge(record("C", "bird")))
	return ix
}

func TestMergeCounters(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Merge(record("d1", "cat", "cat", "dog")))
	require.NoError(t, ix.Merge(record("d2", "cat")))
	empty := record("d3")
	empty.Excluded = 4
	require.NoError(t, ix.Merge(empty))

	st := ix.Stats()
	require.Equal(t, 3, st.TotalDocs)
	require.Equal(t, 2, st.DistinctTerms)
	require.Equal(t, 4, st.IndexedTerms)
	require.Equal(t, 4, st.ExcludedTerms)
	require.True(t, ix.HasDoc("d3"))

	cat, ok := ix.Term("cat")
	require.True(t, ok)
	require.Equal(t, 2, cat.DocumentFrequency)
	require.Equal(t, 3, cat.TotalTermFrequency)
	p, ok := ix.Posting("cat", "d1")
	require.True(t, ok)
	require.Equal(t, []int{0, 1}, p.Positions)
	require.NoError(t, ix.Validate())
}

func TestMergeDuplicateIsFatalAndAtomic(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Merge(record("d1", "cat")))
	before := ix.Stats()

	err := ix.Merge(record("d1", "dog", "bird"))
	require.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
	require.Equal(t, before, ix.Stats())
	_, ok := ix.Term("dog")
	require.False(t, ok)

	// an empty document claims its ID too
	require.NoError(t, ix.Merge(record("empty")))
	require.ErrorIs(t, ix.Merge(record("empty", "cat")), apperrors.ErrDuplicateDocument)
}

func TestMergeRejectsMalformedRecord(t *testing.T) {
	ix := New()
	bad := &parser.Record{DocID: "d", Lemmas: map[string][]int{"cat": {3, 1}}}
	require.ErrorIs(t, ix.Merge(bad), apperrors.ErrCorruptIndex)
	require.ErrorIs(t, ix.Merge(&parser.Record{}), apperrors.ErrCorruptIndex)
	require.Zero(t, ix.Stats().TotalDocs)
}

func TestScoreCatDog(t *testing.T) {
	ix := catDog(t)
	require.NoError(t, ix.Score())
	require.True(t, ix.Scored())

	require.Equal(t, 1.5, ix.IDF("cat"))
	require.Equal(t, 3.0, ix.IDF("dog"))

	pA, _ := ix.Posting("cat", "A")
	pB, _ := ix.Posting("cat", "B")
	dA, _ := ix.Posting("dog", "A")
	require.Equal(t, 1.5, pA.TFIDF)
	require.Equal(t, 1.5, pB.TFIDF)
	require.Equal(t, 3.0, dA.TFIDF)
	require.NoError(t, ix.Validate())
}

func TestScoreTwice(t *testing.T) {
	ix := catDog(t)
	require.NoError(t, ix.Score())
	require.ErrorIs(t, ix.Score(), apperrors.ErrAlreadyScored)
	p, _ := ix.Posting("cat", "A")
	require.Equal(t, 1.5, p.TFIDF)

	// the raw pass is not idempotent
	ix.mu.Lock()
	require.NoError(t, ix.applyTFIDF())
	ix.mu.Unlock()
	require.Equal(t, 3.0, p.TFIDF)
	require.ErrorIs(t, ix.Validate(), apperrors.ErrCorruptIndex)
}

func TestMergeAfterScore(t *testing.T) {
	ix := catDog(t)
	require.NoError(t, ix.Score())
	require.ErrorIs(t, ix.Merge(record("D", "cat")), apperrors.ErrAlreadyScored)
}

func TestValidateDetectsCorruption(t *testing.T) {
	ix := catDog(t)
	e, _ := ix.Term("cat")
	e.TotalTermFrequency++
	require.ErrorIs(t, ix.Validate(), apperrors.ErrCorruptIndex)
	e.TotalTermFrequency--

	e.DocumentFrequency = 5
	require.ErrorIs(t, ix.Validate(), apperrors.ErrCorruptIndex)
	require.ErrorIs(t, ix.Score(), apperrors.ErrCorruptIndex)
	require.False(t, ix.Scored())
}

func TestSnapshotRoundTrip(t *testing.T) {
	ix := catDog(t)
	require.NoError(t, ix.Score())

	copyIx, err := FromSnapshot(ix.Snapshot())
	require.NoError(t, err)
	require.True(t, ix.Equal(copyIx))
	require.Equal(t, []string{"A", "B", "C"}, copyIx.Docs())
	require.Equal(t, []string{"bird", "cat", "dog"}, copyIx.Lemmas())

	s := ix.Snapshot()
	s.TotalDocs = 7
	_, err = FromSnapshot(s)
	require.ErrorIs(t, err, apperrors.ErrCorruptIndex)
}

func TestTopTerms(t *testing.T) {
	ix := catDog(t)
	top := ix.TopTerms(2)
	require.Len(t, top, 2)
	require.Equal(t, "cat", top[0].Lemma)
	require.Equal(t, "bird", top[1].Lemma)
	require.Len(t, ix.TopTerms(-1), 3)
}

func TestConcurrentMergeMatchesSequential(t *testing.T) {
	recs := make([]*parser.Record, 0, 200)
	for i := 0; i < 200; i++ {
		recs = append(recs, record(fmt.Sprintf("doc%03d", i), "alpha", fmt.Sprintf("t%d", i%17), "beta", "alpha"))
	}

	seq := New()
	for _, r := range recs {
		require.NoError(t, seq.Merge(r))
	}

	conc := New()
	errs := make(chan error, len(recs))
	var wg sync.WaitGroup
	for i := len(recs) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(r *parser.Record) {
			defer wg.Done()
			errs <- conc.Merge(r)
		}(recs[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, seq.Score())
	require.NoError(t, conc.Score())
	require.True(t, seq.Equal(conc))

	dfSum := 0
	for _, l := range conc.Lemmas() {
		e, _ := conc.Term(l)
		dfSum += e.DocumentFrequency
	}
	require.Equal(t, 200*3, dfSum)
}

func BenchmarkMerge(b *testing.B) {
	lemmas := make([]string, 500)
	for i := range lemmas {
		lemmas[i] = fmt.Sprintf("lemma%d", i%120)
	}
	b.ReportAllocs()
	b.ResetTimer()
	ix := New()
	for i := 0; i < b.N; i++ {
		if err := ix.Merge(record(fmt.Sprintf("doc%d", i), lemmas...)); err != nil {
			b.Fatal(err)
		}
	}
}

func TestIDFDuringMerge(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Merge(record("seed", "cat")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = ix.Merge(record(fmt.Sprintf("d%d", i), "cat", fmt.Sprintf("w%d", i)))
		}
	}()
	for i := 0; i < 200; i++ {
		require.InDelta(t, 1.0, ix.IDF("cat"), 1e-9)
		_ = ix.IDF(fmt.Sprintf("w%d", i))
	}
	wg.Wait()

	require.Equal(t, 1.0, ix.IDF("cat"))
	require.Equal(t, 201.0, ix.IDF("w7"))
	require.Zero(t, ix.IDF("absent"))
}
