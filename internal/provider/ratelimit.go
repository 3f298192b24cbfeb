package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the default spacing between requests to one provider.
const DefaultMinInterval = 250 * time.Millisecond

// RateLimiter paces requests per provider. Wait returns once it is safe to
// issue the next request to that provider, or the ctx error on cancellation.
type RateLimiter interface {
	Wait(ctx context.Context, providerID string) error
}

// IntervalLimiter enforces a minimum interval between dispatches per
// provider id. Concurrent callers for the same provider queue in arrival
// order inside the underlying limiter; callers for different providers do
// not interact. Cancelling one waiter does not affect the others.
type IntervalLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

// NewIntervalLimiter creates a limiter with the given minimum interval,
// defaulting to DefaultMinInterval when non-positive.
func NewIntervalLimiter(minInterval time.Duration) *IntervalLimiter {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &IntervalLimiter{
		interval: minInterval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the provider's next dispatch slot.
func (l *IntervalLimiter) Wait(ctx context.Context, providerID string) error {
	return l.limiterFor(providerID).Wait(ctx)
}

func (l *IntervalLimiter) limiterFor(providerID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[providerID]
	if !ok {
		// Burst of 1: exactly one dispatch per interval, no catch-up bursts.
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[providerID] = lim
	}
	return lim
}
