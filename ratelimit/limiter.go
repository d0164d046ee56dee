// ABOUTME: This file implements the per-second and rolling-window rate limiters
// ABOUTME: Both block the caller until a request slot is available, honoring context cancellation
package ratelimit

import (
	"context"
	crand "crypto/rand"
	"math/big"
	"sync"
	"time"
)

// windowMargin pads rolling-window waits so a slot is genuinely free when
// the caller wakes up.
const windowMargin = 100 * time.Millisecond

// randomFraction returns a random float64 in the range [0, max). It uses
// crypto/rand to avoid gosec G404 warnings. If randomness fails, 0 is returned.
func randomFraction(max float64) float64 {
	const precision = 1_000_000
	n, err := crand.Int(crand.Reader, big.NewInt(precision))
	if err != nil {
		return 0
	}
	return (float64(n.Int64()) / precision) * max
}

// sleepCtx blocks for d or until the context is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PerSecondLimiter enforces a minimum interval between requests with
// additive jitter to avoid lockstep bursts across workers.
type PerSecondLimiter struct {
	lastRequest time.Time
	interval    time.Duration
	maxJitter   time.Duration
	mu          sync.Mutex
}

// NewPerSecondLimiter creates a limiter allowing ratePerSecond requests
// per second with up to maxJitter of extra random delay per wait.
func NewPerSecondLimiter(ratePerSecond float64, maxJitter time.Duration) *PerSecondLimiter {
	interval := time.Duration(float64(time.Second) / ratePerSecond)
	return &PerSecondLimiter{interval: interval, maxJitter: maxJitter}
}

// Wait blocks until the minimum interval since the previous request has
// passed, plus jitter. The limiter is held for the duration of the wait so
// concurrent callers serialize.
func (l *PerSecondLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := time.Since(l.lastRequest)
	jitter := time.Duration(randomFraction(float64(l.maxJitter)))
	waitTime := l.interval + jitter

	if elapsed < waitTime {
		if err := sleepCtx(ctx, waitTime-elapsed); err != nil {
			return err
		}
	}
	l.lastRequest = time.Now()
	return nil
}

// WindowLimiter enforces a cap on requests within a rolling time window.
// It records the timestamp of each admitted request and blocks new ones
// until the oldest recorded request falls out of the window.
type WindowLimiter struct {
	window time.Duration
	limit  int
	stamps []time.Time
	mu     sync.Mutex
}

// NewWindowLimiter creates a limiter admitting at most limit requests per
// rolling window.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		window: window,
		limit:  limit,
		stamps: make([]time.Time, 0, limit),
	}
}

// Wait blocks until a window slot is free, then records the request.
func (l *WindowLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := time.Now()
		l.evict(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			return nil
		}
		wait := l.stamps[0].Add(l.window).Sub(now) + windowMargin
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow returns how many admitted requests are still inside the window.
func (l *WindowLimiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(time.Now())
	return len(l.stamps)
}

// evict drops timestamps older than the window. Caller holds the lock.
func (l *WindowLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
