package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces out detail-page loads. Wait blocks until the next load may
// start; Done marks the end of a load.
type Throttle interface {
	Wait(ctx context.Context) error
	Done()
}

// FixedDelay keeps at least interval between the end of one load and the
// start of the next. The first Wait returns immediately.
type FixedDelay struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewFixedDelay creates a throttle with the given spacing. A non-positive
// interval disables throttling.
func NewFixedDelay(interval time.Duration) *FixedDelay {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &FixedDelay{
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the token spent by the last Done has refilled. It does
// not consume the token itself.
func (f *FixedDelay) Wait(ctx context.Context) error {
	if f.interval <= 0 {
		return ctx.Err()
	}
	missing := 1 - f.limiter.Tokens()
	if missing <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(time.Duration(missing * float64(f.interval)))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Done spends the token so the next Wait starts counting from now.
func (f *FixedDelay) Done() {
	f.limiter.Reserve()
}

// Interval returns the configured spacing.
func (f *FixedDelay) Interval() time.Duration {
	return f.interval
}
