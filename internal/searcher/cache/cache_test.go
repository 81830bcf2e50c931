package cache

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/resilience"
)

type memRemote struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemRemote() *memRemote { return &memRemote{data: make(map[string][]byte)} }

func (r *memRemote) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, false, r.err
	}
	b, ok := r.data[key]
	return b, ok, nil
}

func (r *memRemote) SetBytes(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.data[key] = value
	return nil
}

func (r *memRemote) FlushNamespace(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.data))
	r.data = make(map[string][]byte)
	return n, r.err
}

func result(q string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:     q,
		Lemmas:    []string{"cat"},
		Mode:      parser.ModeStandard,
		Standard:  &executor.Hits{TotalHits: 1, Results: []ranker.ScoredDoc{{DocID: "A", Score: 1.5}}},
		TermStats: map[string]int{"cat": 1},
	}
}

func TestKey(t *testing.T) {
	std := func(l ...string) *parser.QueryPlan { return &parser.QueryPlan{Lemmas: l, Mode: parser.ModeStandard} }
	phr := func(l ...string) *parser.QueryPlan { return &parser.QueryPlan{Lemmas: l, Mode: parser.ModePhrase} }

	require.Equal(t, Key(std("cat", "dog"), 10, 1), Key(std("dog", "cat", "dog"), 10, 1))
	require.Equal(t, Key(std("cat"), 10, 1), Key(&parser.QueryPlan{Lemmas: []string{"cat"}}, 10, 1))
	require.NotEqual(t, Key(phr("cat", "dog"), 10, 1), Key(phr("dog", "cat"), 10, 1))
	require.NotEqual(t, Key(std("cat"), 10, 1), Key(phr("cat"), 10, 1))
	require.NotEqual(t, Key(std("cat"), 10, 1), Key(std("cat"), 5, 1))
	require.NotEqual(t, Key(std("cat"), 10, 1), Key(std("cat"), 10, 2))
}

func TestGetOrComputeLocal(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return result("cat"), nil
	}
	got, cached, err := c.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, "cat", got.Query)

	got, cached, err = c.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, "cat", got.Query)
	require.Equal(t, 1, calls)

	st := c.Stats()
	require.Equal(t, int64(1), st.LocalHits)
	require.Equal(t, int64(1), st.Misses)
	require.Equal(t, 1, st.Entries)
	require.False(t, st.Remote)
}

func TestComputeErrorNotCached(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)
	boom := errors.New("boom")

	_, _, err = c.GetOrCompute(context.Background(), "k", func() (*executor.SearchResult, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.Zero(t, c.Stats().Entries)
}

func TestRemoteTierSharedAcrossInstances(t *testing.T) {
	remote := newMemRemote()
	ctx := context.Background()

	first, err := New(8, remote, nil)
	require.NoError(t, err)
	_, _, err = first.GetOrCompute(ctx, "k", func() (*executor.SearchResult, error) { return result("cat"), nil })
	require.NoError(t, err)
	require.Len(t, remote.data, 1)

	second, err := New(8, remote, nil)
	require.NoError(t, err)
	got, cached, err := second.GetOrCompute(ctx, "k", func() (*executor.SearchResult, error) {
		t.Fatal("computed despite remote hit")
		return nil, nil
	})
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, result("cat"), got)
	require.Equal(t, int64(1), second.Stats().RemoteHits)

	// promoted to the local tier
	_, ok := second.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, int64(1), second.Stats().LocalHits)
}

func TestRemoteErrorsFallBackToCompute(t *testing.T) {
	remote := newMemRemote()
	remote.err = errors.New("connection refused")
	c, err := New(8, remote, nil)
	require.NoError(t, err)

	got, cached, err := c.GetOrCompute(context.Background(), "k", func() (*executor.SearchResult, error) { return result("cat"), nil })
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, "cat", got.Query)
}

func TestSingleflightCollapsesConcurrentMisses(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return result("cat"), nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), "k", compute)
			errs <- err
		}()
	}
	for calls.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestInvalidate(t *testing.T) {
	remote := newMemRemote()
	m := metrics.New(prometheus.NewRegistry())
	c, err := New(8, remote, m)
	require.NoError(t, err)
	ctx := context.Background()

	c.Set(ctx, "a", result("a"))
	c.Set(ctx, "b", result("b"))
	require.Equal(t, 2, c.Stats().Entries)

	require.NoError(t, c.Invalidate(ctx))
	require.Zero(t, c.Stats().Entries)
	require.Empty(t, remote.data)
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
}

func TestLocalEviction(t *testing.T) {
	c, err := New(2, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()
	c.Set(ctx, "a", result("a"))
	c.Set(ctx, "b", result("b"))
	c.Set(ctx, "c", result("c"))
	require.Equal(t, 2, c.Stats().Entries)
	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
}

func TestNewRejectsZeroSize(t *testing.T) {
	_, err := New(0, nil, nil)
	require.Error(t, err)
}

func TestGuardedRemoteTripsBreaker(t *testing.T) {
	remote := newMemRemote()
	remote.err = errors.New("connection refused")
	guarded := Guard(remote, config.RedisConfig{BreakerThreshold: 2, BreakerReset: time.Hour})
	ctx := context.Background()

	_, _, err := guarded.GetBytes(ctx, "k")
	require.ErrorIs(t, err, remote.err)
	require.ErrorIs(t, guarded.SetBytes(ctx, "k", []byte("v")), remote.err)

	_, _, err = guarded.GetBytes(ctx, "k")
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)

	// the cache keeps answering from computation
	c, err := New(8, guarded, nil)
	require.NoError(t, err)
	got, cached, err := c.GetOrCompute(ctx, "k", func() (*executor.SearchResult, error) { return result("cat"), nil })
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, "cat", got.Query)
}
