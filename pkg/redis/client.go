// Package redis wraps go-redis/v9 for the shared query-result cache tier:
// namespaced byte get/set and prefix invalidation.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
)

// Client wraps a go-redis client. Every key it touches is prefixed with
// namespace.
type Client struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig, namespace string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb, namespace: namespace, ttl: cfg.CacheTTL}, nil
}

func (c *Client) key(k string) string {
	return c.namespace + ":" + k
}

// GetBytes returns the stored value, or found=false when the key is absent.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if IsNilError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// SetBytes stores value under key with the configured cache TTL.
func (c *Client) SetBytes(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, c.key(key), value, c.ttl).Err()
}

// FlushNamespace deletes every key under the client's namespace and returns
// how many were removed.
func (c *Client) FlushNamespace(ctx context.Context) (int64, error) {
	var deleted int64
	pattern := c.namespace + ":*"
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("deleting key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scanning pattern %s: %w", pattern, err)
	}
	return deleted, nil
}

// IsNilError reports whether err is a Redis nil (key-not-found) error.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
