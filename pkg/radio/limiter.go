package radio

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token-bucket rate limiter. Tokens refill continuously at the
// configured rate up to the burst capacity. Wait reserves a token and sleeps
// until it becomes available, but refuses reservations whose wait would
// exceed the caller's budget so a stampede fails fast instead of queueing
// without bound.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time

	now func() time.Time // test hook
}

// NewLimiter returns a full bucket refilling at rate tokens per second.
// A rate or burst below the minimum is clamped to 1.
func NewLimiter(rate float64, burst int) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		now:    time.Now,
	}
	l.last = l.now()
	return l
}

// Wait reserves one token. If the token is available it returns immediately.
// Otherwise it sleeps until the reservation matures, unless the required wait
// exceeds maxWait, in which case it returns ErrRateLimited without consuming
// anything. A context cancellation releases the reservation.
func (l *Limiter) Wait(ctx context.Context, maxWait time.Duration) error {
	l.mu.Lock()
	l.refill()
	l.tokens--
	var wait time.Duration
	if l.tokens < 0 {
		wait = time.Duration(-l.tokens / l.rate * float64(time.Second))
	}
	if wait > maxWait {
		l.tokens++
		l.mu.Unlock()
		return ErrRateLimited
	}
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.tokens++
		l.mu.Unlock()
		return ctx.Err()
	}
}

// refill advances the bucket to now. Caller holds mu.
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.last)
	l.last = now
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed.Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
}
