/*
Package worker provides a fixed-size worker pool over a shared blocking queue.

# Overview

A Pool starts a fixed number of Workers that all consume from one
queue.Blocking. Producers call Submit; each accepted WorkItem is taken by
exactly one worker and ends with exactly one terminal outcome, recorded in
the pool's OutcomeCounters.

# Core Components

## Pool

  - Fixed number of worker goroutines started on an errgroup
  - Non-blocking Submit, safe for concurrent producers
  - Drain-then-join Shutdown bounded by a context
  - Pool and per-worker statistics

## Worker

Each worker moves through Idle, Running, Draining and Stopped. Stop flips
the worker to draining; the worker still takes queued items and exits only
when the queue reports end-of-stream.

## Processor

A Processor turns one item into one retry.Result. Direct runs the action
once; Retrying gives every worker its own retry.Executor so failure
simulation draws never share a random source.

# Error Handling

Panics inside an action are recovered and converted to *types.TaskError
with the stack trace and worker id attached. Permanent failures are passed
to an internal/errors ErrorHandler and never stop a worker.

# Usage Example

	pool, err := worker.NewPool(ctx, &worker.PoolConfig{
		Size:      4,
		Processor: worker.Retrying(policy, seed),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	for i := 1; i <= 50; i++ {
		if err := pool.Submit(worker.NewWorkItem(i, work)); err != nil {
			return err
		}
	}

	if err := pool.Shutdown(ctx); err != nil {
		return err
	}
	return pool.Counters().Validate(pool.Submitted())
*/
package worker
