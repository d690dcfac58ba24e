// Package types defines core interfaces and types shared by the queue, worker and retry packages
package types

import (
	"time"
)

// Outcome is the terminal result of a work item
type Outcome int

const (
	// OutcomeSuccess means the item completed
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means the item failed permanently
	OutcomeFailure
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MetricsCollector receives pool activity.
// Implementations must be safe for concurrent use and must not block.
type MetricsCollector interface {
	// ItemSubmitted is called once per accepted submission
	ItemSubmitted()

	// ItemCompleted is called once per terminal outcome
	ItemCompleted(outcome Outcome, attempts int, duration time.Duration)

	// AttemptFailed is called for every failed attempt, including the last one
	AttemptFailed()

	// QueueDepth reports the queue length after an enqueue or dequeue
	QueueDepth(n int)

	// WorkersRunning reports the number of workers not yet stopped
	WorkersRunning(n int)
}

// NoopMetrics discards all metric updates
type NoopMetrics struct{}

func (NoopMetrics) ItemSubmitted() {}
func (NoopMetrics) ItemCompleted(Outcome, int, time.Duration) {}
func (NoopMetrics) AttemptFailed() {}
func (NoopMetrics) QueueDepth(int) {}
func (NoopMetrics) WorkersRunning(int) {}

// PoolStats defines basic statistics for worker pools
type PoolStats struct {
	// PoolSize is the number of workers
	PoolSize int

	// RunningWorkers is the number of workers that have not stopped
	RunningWorkers int

	// QueueLength is the current number of items waiting
	QueueLength int

	// Submitted is the number of accepted submissions
	Submitted int64

	// Succeeded is the number of items that completed
	Succeeded int64

	// Failed is the number of items that failed permanently
	Failed int64

	// Accepting reports whether the pool still accepts work
	Accepting bool
}

// Pending returns submissions without a terminal outcome yet
func (s PoolStats) Pending() int64 {
	return s.Submitted - s.Succeeded - s.Failed
}
