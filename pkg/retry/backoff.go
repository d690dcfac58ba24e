// Package retry provides backoff algorithm implementations
package retry

import (
	"math"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
)

// BackoffStrategy defines the backoff strategy interface
type BackoffStrategy interface {
	// NextDelay calculates the delay before the given retry; attempt starts at 1
	NextDelay(attempt int) time.Duration
}

// BackoffFactory builds the backoff state for one work item.
// The seed comes from the owning worker's random source.
type BackoffFactory func(seed int64) BackoffStrategy

// NoBackoff retries immediately
type NoBackoff struct{}

// NextDelay always returns zero
func (NoBackoff) NextDelay(int) time.Duration { return 0 }

// FixedBackoff implements fixed backoff strategy
type FixedBackoff struct {
	delay time.Duration
}

// NewFixedBackoff creates a fixed backoff strategy
func NewFixedBackoff(delay time.Duration) *FixedBackoff {
	return &FixedBackoff{delay: delay}
}

// NextDelay calculates the delay for the next retry
func (b *FixedBackoff) NextDelay(int) time.Duration {
	return b.delay
}

// ExponentialBackoff implements exponential backoff strategy
type ExponentialBackoff struct {
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
}

// NewExponentialBackoff creates an exponential backoff strategy doubling from
// initialDelay and capped at maxDelay
func NewExponentialBackoff(initialDelay, maxDelay time.Duration) *ExponentialBackoff {
	if maxDelay < initialDelay {
		maxDelay = initialDelay
	}
	return &ExponentialBackoff{
		initialDelay: initialDelay,
		multiplier:   2.0,
		maxDelay:     maxDelay,
	}
}

// NextDelay calculates the delay for the next retry
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))
	if delay > float64(b.maxDelay) {
		return b.maxDelay
	}
	return time.Duration(delay)
}

// JitteredBackoff delegates to a randomized backoff sequence.
// It is stateful: each NextDelay call advances the sequence, so one
// instance must serve a single work item.
type JitteredBackoff struct {
	next func() time.Duration
}

// NewJitteredBackoff creates a jittered backoff between initial and maxDelay
func NewJitteredBackoff(initial, maxDelay time.Duration, seed int64) *JitteredBackoff {
	seq := boff.New(initial, maxDelay, seed)
	return &JitteredBackoff{next: seq.Next}
}

// NextDelay returns the next delay in the jittered sequence
func (b *JitteredBackoff) NextDelay(int) time.Duration {
	return b.next()
}

// Immediate returns a factory for retries without delay
func Immediate() BackoffFactory {
	return func(int64) BackoffStrategy { return NoBackoff{} }
}

// Fixed returns a factory for a constant delay between attempts
func Fixed(delay time.Duration) BackoffFactory {
	b := NewFixedBackoff(delay)
	return func(int64) BackoffStrategy { return b }
}

// Exponential returns a factory for capped exponential delays
func Exponential(initial, maxDelay time.Duration) BackoffFactory {
	b := NewExponentialBackoff(initial, maxDelay)
	return func(int64) BackoffStrategy { return b }
}

// Jittered returns a factory producing a fresh jittered sequence per item
func Jittered(initial, maxDelay time.Duration) BackoffFactory {
	return func(seed int64) BackoffStrategy {
		return NewJitteredBackoff(initial, maxDelay, seed)
	}
}
