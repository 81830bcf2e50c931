// Package cache memoizes query results in two tiers: an in-process LRU and
// an optional shared Redis tier. Concurrent misses for the same key are
// collapsed into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
)

const keyPrefix = "search:"

// Remote is the shared cache tier. *redis.Client implements it.
type Remote interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte) error
	FlushNamespace(ctx context.Context) (int64, error)
}

type Stats struct {
	LocalHits  int64 `json:"local_hits"`
	RemoteHits int64 `json:"remote_hits"`
	Misses     int64 `json:"misses"`
	Entries    int   `json:"entries"`
	Remote     bool  `json:"remote"`
}

// QueryCache results are shared between callers and must not be mutated.
type QueryCache struct {
	local   *lru.Cache[string, *executor.SearchResult]
	remote  Remote
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	localHits  atomic.Int64
	remoteHits atomic.Int64
	misses     atomic.Int64
}

// New creates a cache holding up to localSize results in process. remote and
// m may be nil.
func New(localSize int, remote Remote, m *metrics.Metrics) (*QueryCache, error) {
	local, err := lru.New[string, *executor.SearchResult](localSize)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	return &QueryCache{
		local:   local,
		remote:  remote,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}, nil
}

// Key identifies plan's results at limit against the index generation
// (the loaded file's creation time). Standard queries ignore lemma order and
// repeats; phrase queries do not.
func Key(plan *parser.QueryPlan, limit int, generation int64) string {
	mode := plan.Mode
	if mode == "" {
		mode = parser.ModeStandard
	}
	lemmas := plan.Lemmas
	if mode == parser.ModeStandard {
		lemmas = plan.Distinct()
		sort.Strings(lemmas)
	}
	raw := fmt.Sprintf("%s|%s|limit=%d|gen=%d", mode, strings.Join(lemmas, " "), limit, generation)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Get looks key up in the local tier, then the remote one. A remote hit is
// promoted into the local tier.
func (c *QueryCache) Get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	if result, ok := c.local.Get(key); ok {
		c.hit(&c.localHits, "local")
		return result, true
	}
	if c.remote != nil {
		data, found, err := c.remote.GetBytes(ctx, key)
		switch {
		case err != nil:
			c.logger.Error("cache get failed", "key", key, "error", err)
		case found:
			var result executor.SearchResult
			if err := json.Unmarshal(data, &result); err != nil {
				c.logger.Error("cache unmarshal failed", "key", key, "error", err)
				break
			}
			c.local.Add(key, &result)
			c.hit(&c.remoteHits, "remote")
			return &result, true
		}
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
	return nil, false
}

// Set stores result in both tiers. Remote failures are logged, not returned.
func (c *QueryCache) Set(ctx context.Context, key string, result *executor.SearchResult) {
	c.local.Add(key, result)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.remote.SetBytes(ctx, key, data); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for key or runs computeFn once per
// key across concurrent callers. cached reports whether computeFn was skipped.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() (*executor.SearchResult, error),
) (result *executor.SearchResult, cached bool, err error) {
	if result, ok := c.Get(ctx, key); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.local.Get(key); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate empties both tiers.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	entries := c.local.Len()
	c.local.Purge()
	var deleted int64
	if c.remote != nil {
		var err error
		deleted, err = c.remote.FlushNamespace(ctx)
		if err != nil {
			return fmt.Errorf("invalidating cache: %w", err)
		}
	}
	c.logger.Info("cache invalidated", "local_entries", entries, "remote_keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() Stats {
	return Stats{
		LocalHits:  c.localHits.Load(),
		RemoteHits: c.remoteHits.Load(),
		Misses:     c.misses.Load(),
		Entries:    c.local.Len(),
		Remote:     c.remote != nil,
	}
}

func (c *QueryCache) hit(counter *atomic.Int64, tier string) {
	counter.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}
