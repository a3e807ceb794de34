// Package retry implements the bounded exponential backoff used by
// connectors and the network transport to recover from Transient
// errors (spec §7) without surfacing them.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Backoff produces a bounded exponential delay sequence with jitter,
// grounded in the teacher's connector retry pattern.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	attempt int
}

// NewBackoff returns a Backoff starting at base and capped at max.
func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max}
}

// Next returns the delay for the next attempt and advances the
// sequence.
func (b *Backoff) Next() time.Duration {
	d := b.Base << uint(b.attempt)
	if d <= 0 || d > b.Max {
		d = b.Max
	}
	b.attempt++
	// Full jitter: uniform in [0, d).
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)))
}

// Reset clears the attempt counter, e.g. after a successful operation.
func (b *Backoff) Reset() { b.attempt = 0 }

// Sleep waits for the next backoff delay or until ctx is canceled.
func (b *Backoff) Sleep(ctx context.Context) error {
	select {
	case <-time.After(b.Next()):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
