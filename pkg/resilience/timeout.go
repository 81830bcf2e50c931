package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout calls fn with ctx bounded by timeout. fn must honour its
// context. A non-positive timeout calls fn with ctx unchanged.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(tctx)
	if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%s: exceeded %v: %w", name, timeout, err)
	}
	return err
}
