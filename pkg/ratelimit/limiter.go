package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outgoing remote calls
type Limiter interface {
	// Allow takes a token without blocking
	Allow() bool
	// Wait blocks until a token is available or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket refills continuously at a fixed rate up to its burst size
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	interval time.Duration // time to earn one token
	last     time.Time
	now      func() time.Time
}

// NewTokenBucket allows perMinute calls on average with bursts of up to burst
func NewTokenBucket(perMinute, burst int) *TokenBucket {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		capacity: float64(burst),
		tokens:   float64(burst),
		interval: time.Minute / time.Duration(perMinute),
		last:     time.Now(),
		now:      time.Now,
	}
}

// Allow takes a token if one is available
func (tb *TokenBucket) Allow() bool {
	_, ok := tb.reserve()
	return ok
}

// Wait blocks until a token has been taken
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait, ok := tb.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token or reports how long until one is earned
func (tb *TokenBucket) reserve() (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	elapsed := now.Sub(tb.last)
	tb.last = now
	tb.tokens += float64(elapsed) / float64(tb.interval)
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return 0, true
	}
	missing := 1 - tb.tokens
	return time.Duration(missing * float64(tb.interval)), false
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
