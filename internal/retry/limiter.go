package retry

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Limiter throttles engine invocations across all jobs.
type Limiter struct {
	l *rate.Limiter
}

// NewLimiter allows perSecond invocations per second with a burst of one.
// perSecond <= 0 means unlimited.
func NewLimiter(perSecond float64) *Limiter {
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return &Limiter{}
	}
	return &Limiter{l: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until an invocation is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.l == nil {
		return ctx.Err()
	}
	return l.l.Wait(ctx)
}

// Unlimited reports whether the limiter never blocks.
func (l *Limiter) Unlimited() bool {
	return l == nil || l.l == nil
}
