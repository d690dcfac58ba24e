// Package types provides core clock abstractions for time mocking
package types

import (
	"time"
)

// Clock provides an abstraction over time operations for testing
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// Since returns the time elapsed since t
	Since(t time.Time) time.Duration
	// NewTimer creates a new Timer
	NewTimer(d time.Duration) Timer
}

// Timer provides timer operations
type Timer interface {
	// C delivers the fire time once
	C() <-chan time.Time
	// Stop reports whether the call stopped the timer
	Stop() bool
}

// RealClock implements Clock using real time operations
type RealClock struct{}

// NewRealClock creates a new real clock
func NewRealClock() Clock {
	return &RealClock{}
}

// Now returns time.Now
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns time.Since(t)
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// NewTimer starts a time.Timer firing after d
func (c *RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

// realTimer wraps time.Timer
type realTimer struct {
	timer *time.Timer
}

// C returns the channel the timer fires on
func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

// Stop prevents the timer from firing
func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}
