package worker

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacerSleepFunc is the sleep function used for the pre-call delay (injectable for tests)
var pacerSleepFunc = sleepWithContext

// Pacer enforces the external-service pacing contract: a fixed delay before
// every call, plus a rate limiter guaranteeing the delay holds as minimum
// inter-call spacing even if callers ever fan out. At most one call per
// token stream proceeds at a time.
type Pacer struct {
	delay   time.Duration
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given pre-call delay. A zero or
// negative delay disables pacing entirely.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{
		delay:   delay,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Wait blocks for the configured delay and for rate limit clearance.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay > 0 {
		if err := pacerSleepFunc(ctx, p.delay); err != nil {
			return err
		}
	}
	return p.limiter.Wait(ctx)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
