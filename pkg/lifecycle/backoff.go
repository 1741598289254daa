package lifecycle

import (
	"context"
	"math/rand"
	"time"
)

// Backoff implements exponential backoff with jitter.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
	jitter  float64
	clock   Clock
}

// NewBackoff creates a new backoff with the given initial and max durations
// and ±20% jitter.
func NewBackoff(initial, max time.Duration, clock Clock) *Backoff {
	if clock == nil {
		clock = RealClock()
	}
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
		current: initial,
		jitter:  0.2,
		clock:   clock,
	}
}

// WithoutJitter disables jitter; waits are exactly initial, 2*initial, ...
func (b *Backoff) WithoutJitter() *Backoff {
	b.jitter = 0
	return b
}

// Wait blocks for the current backoff duration, then doubles it up to max.
// Returns ctx.Err() if the context is canceled first.
func (b *Backoff) Wait(ctx context.Context) error {
	d := b.current
	if b.jitter > 0 {
		d = time.Duration(float64(d) + float64(d)*b.jitter*(rand.Float64()*2-1))
	}

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.clock.After(d):
		return nil
	}
}

// Reset resets the backoff to the initial duration.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Current returns the duration the next Wait will use, before jitter.
func (b *Backoff) Current() time.Duration {
	return b.current
}
