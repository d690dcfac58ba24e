// Package retry implements the retry-with-failure-injection semantics used by
// the worker pool's simulation mode.
//
// Key Features:
//
// 1. Validated policy:
//   - FailureProbability in [0,1]
//   - MaxRetries >= 0, giving MaxRetries+1 attempts per item
//   - Invalid values are rejected by NewPolicy, never at run time
//
// 2. Backoff between attempts (optional, zero by default):
//   - Immediate: retry right away
//   - Fixed: constant delay
//   - Exponential: doubling delay with a cap
//   - Jittered: randomized sequence, one per item
//
// 3. Executor:
//   - One per worker, owning a seeded random source for reproducible runs
//   - Exactly one terminal Result per item
//   - Context cancellation interrupts backoff waits
//   - Attempt statistics and event hooks
//
// Basic usage example:
//
//	policy, err := retry.NewPolicy(0.8, 1)
//	if err != nil {
//		return err
//	}
//
//	executor := retry.NewExecutor(policy, seed)
//
//	result := executor.Execute(ctx, "item-1", func(ctx context.Context) error {
//		return doSomething(ctx)
//	})
//	if result.Outcome == types.OutcomeFailure {
//		log.Printf("gave up after %d attempts: %v", result.Attempts, result.Err)
//	}
package retry
