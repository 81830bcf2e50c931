package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Second})
	b.now = func() time.Time { return now }
	boom := errors.New("boom")

	require.ErrorIs(t, b.Do(func() error { return boom }), boom)
	require.Equal(t, StateClosed, b.State())
	require.ErrorIs(t, b.Do(func() error { return boom }), boom)
	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.False(t, called)

	// failed probe re-opens
	now = now.Add(time.Second)
	require.ErrorIs(t, b.Do(func() error { return boom }), boom)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(time.Second)
	require.NoError(t, b.Do(func() error { return nil }))
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 2})
	boom := errors.New("boom")
	require.Error(t, b.Do(func() error { return boom }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return boom }))
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerSingleProbe(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.now = func() time.Time { return now }
	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	now = now.Add(2 * time.Second)

	err := b.Do(func() error {
		require.ErrorIs(t, b.Do(func() error { return nil }), ErrCircuitOpen)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, StateClosed, b.State())
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "slow: exceeded")

	require.NoError(t, WithTimeout(context.Background(), 0, "none", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		require.False(t, ok)
		return nil
	}))
}
