package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fast = RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "flaky", fast, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Retry(context.Background(), "broken", fast, func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanent(t *testing.T) {
	bad := errors.New("bad request")
	calls := 0
	err := Retry(context.Background(), "perm", fast, func() error {
		calls++
		return Permanent(bad)
	})
	require.Equal(t, bad, err)
	require.Equal(t, 1, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "cancelled", fast, func() error { return errors.New("x") })
	require.ErrorIs(t, err, context.Canceled)
}

func TestComputeDelayCapped(t *testing.T) {
	cfg := withDefaults(RetryConfig{InitialDelay: time.Second, MaxDelay: 1500 * time.Millisecond})
	require.LessOrEqual(t, computeDelay(5, cfg), 1500*time.Millisecond)
}
