// Package retry provides retry executor implementation
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jzx17/taskpool/pkg/types"
	"go.uber.org/zap"
)

// AttemptFunc is one attempt at running a work item
type AttemptFunc func(ctx context.Context) error

// Result is the terminal outcome of Execute
type Result struct {
	Outcome  types.Outcome
	Attempts int
	// Err is nil on success; on failure it wraps types.ErrRetriesExhausted
	// and the last attempt error
	Err      error
	Duration time.Duration
}

// Stats contains retry statistics
type Stats struct {
	TotalAttempts  int64
	TotalRetries   int64
	TotalSuccesses int64
	TotalFailures  int64
}

// AverageAttempts returns attempts per terminal outcome
func (s Stats) AverageAttempts() float64 {
	total := s.TotalSuccesses + s.TotalFailures
	if total == 0 {
		return 0
	}
	return float64(s.TotalAttempts) / float64(total)
}

// EventHandler handles retry events
type EventHandler interface {
	OnAttemptFailed(ctx context.Context, name string, attempt int, err error)
	OnSuccess(ctx context.Context, name string, attempts int)
	OnExhausted(ctx context.Context, name string, attempts int, err error)
}

// Executor runs attempts under a Policy.
//
// An Executor owns its random source and is not safe for concurrent
// Execute calls; give each worker its own. Stats may be read concurrently.
type Executor struct {
	policy *Policy
	rng    *rand.Rand
	clock  types.Clock
	events EventHandler

	attempts  atomic.Int64
	retries   atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
}

// ExecutorOption is a configuration option for retry executor
type ExecutorOption func(*Executor)

// WithEventHandler sets the event handler
func WithEventHandler(handler EventHandler) ExecutorOption {
	return func(e *Executor) {
		e.events = handler
	}
}

// WithClock sets the clock for time operations
func WithClock(clock types.Clock) ExecutorOption {
	return func(e *Executor) {
		e.clock = clock
	}
}

// NewExecutor creates an executor whose failure draws come from a
// generator seeded with seed
func NewExecutor(policy *Policy, seed int64, opts ...ExecutorOption) *Executor {
	e := &Executor{
		policy: policy,
		rng:    rand.New(rand.NewSource(seed)),
		clock:  types.NewRealClock(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.clock == nil {
		e.clock = types.NewRealClock()
	}
	return e
}

// Policy returns the executor's policy
func (e *Executor) Policy() *Policy {
	return e.policy
}

// Execute performs at most MaxRetries+1 attempts of fn and returns exactly
// one terminal result.
//
// An attempt fails when fn returns an error or when a uniform draw in
// [0,1) falls below FailureProbability. The first successful attempt ends
// execution. Cancelling ctx interrupts only the wait between attempts and
// ends execution as a permanent failure.
func (e *Executor) Execute(ctx context.Context, name string, fn AttemptFunc) Result {
	start := e.clock.Now()
	bo := e.policy.newBackoff(e.rng.Int63())

	attempt := 0
	for {
		attempt++
		e.attempts.Add(1)

		err := fn(ctx)
		if err == nil && e.rng.Float64() < e.policy.FailureProbability {
			err = types.ErrInjectedFailure
		}

		if err == nil {
			e.successes.Add(1)
			if attempt > 1 {
				e.retries.Add(1)
			}
			if e.events != nil {
				e.events.OnSuccess(ctx, name, attempt)
			}
			return Result{
				Outcome:  types.OutcomeSuccess,
				Attempts: attempt,
				Duration: e.clock.Since(start),
			}
		}

		if e.events != nil {
			e.events.OnAttemptFailed(ctx, name, attempt, err)
		}

		if attempt > e.policy.MaxRetries {
			return e.fail(ctx, name, attempt, err, start)
		}

		if delay := bo.NextDelay(attempt); delay > 0 {
			if werr := e.wait(ctx, delay); werr != nil {
				return e.fail(ctx, name, attempt, werr, start)
			}
		} else if ctx.Err() != nil {
			return e.fail(ctx, name, attempt, ctx.Err(), start)
		}
	}
}

func (e *Executor) fail(ctx context.Context, name string, attempts int, cause error, start time.Time) Result {
	e.failures.Add(1)
	if attempts > 1 {
		e.retries.Add(1)
	}

	err := fmt.Errorf("%w after %d attempts: %w", types.ErrRetriesExhausted, attempts, cause)
	if e.events != nil {
		e.events.OnExhausted(ctx, name, attempts, err)
	}

	return Result{
		Outcome:  types.OutcomeFailure,
		Attempts: attempts,
		Err:      err,
		Duration: e.clock.Since(start),
	}
}

// wait blocks for the backoff delay or until ctx is done
func (e *Executor) wait(ctx context.Context, delay time.Duration) error {
	timer := e.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats gets retry statistics
func (e *Executor) Stats() Stats {
	return Stats{
		TotalAttempts:  e.attempts.Load(),
		TotalRetries:   e.retries.Load(),
		TotalSuccesses: e.successes.Load(),
		TotalFailures:  e.failures.Load(),
	}
}

// LoggingEventHandler logs retry events with zap
type LoggingEventHandler struct {
	logger *zap.Logger
}

// NewLoggingEventHandler creates a zap-backed event handler
func NewLoggingEventHandler(logger *zap.Logger) *LoggingEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingEventHandler{logger: logger}
}

// OnAttemptFailed handles failed attempt events
func (h *LoggingEventHandler) OnAttemptFailed(ctx context.Context, name string, attempt int, err error) {
	h.logger.Debug("attempt failed",
		zap.String("item", name),
		zap.Int("attempt", attempt),
		zap.Error(err))
}

// OnSuccess handles success events
func (h *LoggingEventHandler) OnSuccess(ctx context.Context, name string, attempts int) {
	h.logger.Debug("item processed",
		zap.String("item", name),
		zap.Int("attempts", attempts))
}

// OnExhausted handles permanent failure events
func (h *LoggingEventHandler) OnExhausted(ctx context.Context, name string, attempts int, err error) {
	h.logger.Info("item failed permanently",
		zap.String("item", name),
		zap.Int("attempts", attempts),
		zap.Error(err))
}
