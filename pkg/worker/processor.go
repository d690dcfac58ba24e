package worker

import (
	"context"

	"github.com/jzx17/taskpool/pkg/retry"
	"github.com/jzx17/taskpool/pkg/types"
)

// Processor turns one dequeued item into exactly one terminal result.
// attempt runs the item's action once with panic recovery.
type Processor interface {
	Process(ctx context.Context, item WorkItem, attempt retry.AttemptFunc) retry.Result
}

// ProcessorFactory builds the processor owned by one worker
type ProcessorFactory func(workerID int) Processor

// ProcessorFunc adapts a function to Processor
type ProcessorFunc func(ctx context.Context, item WorkItem, attempt retry.AttemptFunc) retry.Result

// Process implements Processor
func (f ProcessorFunc) Process(ctx context.Context, item WorkItem, attempt retry.AttemptFunc) retry.Result {
	return f(ctx, item, attempt)
}

// Direct returns a factory for processors that run each item once and
// map its error to the outcome
func Direct() ProcessorFactory {
	p := ProcessorFunc(func(ctx context.Context, item WorkItem, attempt retry.AttemptFunc) retry.Result {
		if err := attempt(ctx); err != nil {
			return retry.Result{Outcome: types.OutcomeFailure, Attempts: 1, Err: err}
		}
		return retry.Result{Outcome: types.OutcomeSuccess, Attempts: 1}
	})
	return func(int) Processor { return p }
}

// RetryProcessor runs items through a retry executor
type RetryProcessor struct {
	executor *retry.Executor
}

// NewRetryProcessor creates a processor around executor
func NewRetryProcessor(executor *retry.Executor) *RetryProcessor {
	return &RetryProcessor{executor: executor}
}

// Process implements Processor
func (p *RetryProcessor) Process(ctx context.Context, item WorkItem, attempt retry.AttemptFunc) retry.Result {
	return p.executor.Execute(ctx, item.String(), attempt)
}

// Stats returns the executor statistics
func (p *RetryProcessor) Stats() retry.Stats {
	return p.executor.Stats()
}

// Retrying returns a factory that gives every worker its own executor.
// Worker i draws failures from a generator seeded with seed+i, so a run
// is reproducible per worker.
func Retrying(policy *retry.Policy, seed int64, opts ...retry.ExecutorOption) ProcessorFactory {
	return func(workerID int) Processor {
		return NewRetryProcessor(retry.NewExecutor(policy, seed+int64(workerID), opts...))
	}
}
