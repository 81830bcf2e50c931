package cache

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/resilience"
)

// guardedRemote bounds every remote call by a timeout and stops calling the
// remote tier while its breaker is open.
type guardedRemote struct {
	next    Remote
	breaker *resilience.Breaker
	timeout time.Duration
}

// Guard wraps r with the timeout and circuit breaker settings of cfg.
// Invalidation bypasses the breaker so an explicit flush is always attempted.
func Guard(r Remote, cfg config.RedisConfig) Remote {
	return &guardedRemote{
		next: r,
		breaker: resilience.NewBreaker("redis-cache", resilience.BreakerConfig{
			FailureThreshold: cfg.BreakerThreshold,
			ResetTimeout:     cfg.BreakerReset,
		}),
		timeout: cfg.OpTimeout,
	}
}

func (g *guardedRemote) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := g.breaker.Do(func() error {
		return resilience.WithTimeout(ctx, g.timeout, "cache get", func(ctx context.Context) error {
			var err error
			data, found, err = g.next.GetBytes(ctx, key)
			return err
		})
	})
	return data, found, err
}

func (g *guardedRemote) SetBytes(ctx context.Context, key string, value []byte) error {
	return g.breaker.Do(func() error {
		return resilience.WithTimeout(ctx, g.timeout, "cache set", func(ctx context.Context) error {
			return g.next.SetBytes(ctx, key, value)
		})
	})
}

func (g *guardedRemote) FlushNamespace(ctx context.Context) (int64, error) {
	return g.next.FlushNamespace(ctx)
}
