// Package simulation drives a failure-injection run: it starts a pool with
// retrying workers, submits a fixed number of items, drains the pool and
// checks that every item is accounted for
package simulation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jzx17/taskpool/internal/config"
	errhandler "github.com/jzx17/taskpool/internal/errors"
	"github.com/jzx17/taskpool/internal/history"
	"github.com/jzx17/taskpool/pkg/retry"
	"github.com/jzx17/taskpool/pkg/types"
	"github.com/jzx17/taskpool/pkg/worker"
	"go.uber.org/zap"
)

// Options configures a run
type Options struct {
	TotalTasks         int
	FailureProbability float64
	NumThreads         int
	MaxRetries         int
	Seed               int64

	// Backoff between attempts; nil retries immediately
	Backoff retry.BackoffFactory

	// WorkDuration is how long each attempt takes
	WorkDuration time.Duration

	// ShutdownTimeout bounds the drain; zero waits until ctx ends
	ShutdownTimeout time.Duration

	Metrics types.MetricsCollector
	Logger  *zap.Logger
	Clock   types.Clock
}

// OptionsFromConfig maps loaded configuration to run options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TotalTasks:         cfg.TotalTasks,
		FailureProbability: cfg.FailureProbability,
		NumThreads:         cfg.NumThreads,
		MaxRetries:         cfg.MaxRetries,
		Seed:               cfg.EffectiveSeed(),
		Backoff:            BackoffFromConfig(cfg),
		WorkDuration:       cfg.WorkDuration,
		ShutdownTimeout:    cfg.ShutdownTimeout,
	}
}

// BackoffFromConfig returns the backoff factory named by cfg.Backoff
func BackoffFromConfig(cfg *config.Config) retry.BackoffFactory {
	switch cfg.Backoff {
	case config.BackoffFixed:
		return retry.Fixed(cfg.RetryDelay)
	case config.BackoffExponential:
		return retry.Exponential(cfg.RetryDelay, cfg.RetryMaxDelay)
	case config.BackoffJittered:
		return retry.Jittered(cfg.RetryDelay, cfg.RetryMaxDelay)
	default:
		return retry.Immediate()
	}
}

// Summary is the outcome of a run
type Summary struct {
	RunID              string
	PoolID             string
	StartedAt          time.Time
	Duration           time.Duration
	TotalTasks         int
	NumThreads         int
	FailureProbability float64
	MaxRetries         int
	Seed               int64
	Submitted          int64
	Succeeded          int64
	Failed             int64
	Attempts           int64
	Workers            []worker.WorkerStats

	// Err is non-nil when Succeeded + Failed != TotalTasks
	Err error
}

// Valid reports whether every task is accounted for
func (s *Summary) Valid() bool {
	return s.Err == nil
}

// Record converts the summary to a history record
func (s *Summary) Record() *history.Run {
	return &history.Run{
		ID:                 s.RunID,
		PoolID:             s.PoolID,
		StartedAt:          s.StartedAt,
		Duration:           s.Duration,
		TotalTasks:         s.TotalTasks,
		NumThreads:         s.NumThreads,
		FailureProbability: s.FailureProbability,
		MaxRetries:         s.MaxRetries,
		Seed:               s.Seed,
		Submitted:          s.Submitted,
		Succeeded:          s.Succeeded,
		Failed:             s.Failed,
		Attempts:           s.Attempts,
		Valid:              s.Valid(),
	}
}

// Run executes one simulation. A count mismatch is reported in
// Summary.Err; the returned error covers setup and shutdown faults only.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = types.NewRealClock()
	}
	if opts.TotalTasks < 0 {
		return nil, types.NewConfigError("total tasks", opts.TotalTasks, "must not be negative")
	}

	policy, err := retry.NewPolicy(opts.FailureProbability, opts.MaxRetries, retry.WithBackoff(opts.Backoff))
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := opts.Logger.With(zap.String("run_id", runID))
	start := opts.Clock.Now()

	// injected failures are expected outcomes, not faults
	faults := errhandler.NewLogHandler(logger)
	faults.SetLevel(zap.NewAtomicLevelAt(zap.DebugLevel))

	pool, err := worker.NewPool(ctx, &worker.PoolConfig{
		Size: opts.NumThreads,
		Processor: worker.Retrying(policy, opts.Seed,
			retry.WithEventHandler(retry.NewLoggingEventHandler(logger)),
			retry.WithClock(opts.Clock),
		),
		ErrorHandler: faults,
		Metrics:      opts.Metrics,
		Logger:       logger,
		Clock:        opts.Clock,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("simulation started",
		zap.Int("total_tasks", opts.TotalTasks),
		zap.Int("num_threads", opts.NumThreads),
		zap.Stringer("policy", policy),
		zap.Int64("seed", opts.Seed))

	action := simulatedWork(opts.Clock, opts.WorkDuration)
	var submitErr error
	for i := 1; i <= opts.TotalTasks; i++ {
		if err := pool.Submit(worker.NewWorkItem(i, action)); err != nil {
			submitErr = err
			break
		}
	}

	shutdownCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.ShutdownTimeout > 0 {
		shutdownCtx, cancel = context.WithTimeout(ctx, opts.ShutdownTimeout)
	}
	defer cancel()

	if err := pool.Shutdown(shutdownCtx); err != nil {
		return nil, fmt.Errorf("shutdown worker pool: %w", err)
	}
	if submitErr != nil {
		return nil, submitErr
	}

	counts := pool.Counters().Snapshot()
	summary := &Summary{
		RunID:              runID,
		PoolID:             pool.ID(),
		StartedAt:          start,
		Duration:           opts.Clock.Since(start),
		TotalTasks:         opts.TotalTasks,
		NumThreads:         opts.NumThreads,
		FailureProbability: opts.FailureProbability,
		MaxRetries:         opts.MaxRetries,
		Seed:               opts.Seed,
		Submitted:          pool.Submitted(),
		Succeeded:          counts.Success,
		Failed:             counts.Fail,
		Workers:            pool.WorkerStats(),
		Err:                pool.Counters().Validate(int64(opts.TotalTasks)),
	}
	for _, ws := range summary.Workers {
		summary.Attempts += ws.TotalAttempts
	}

	if summary.Err != nil {
		logger.Error("validation failed", zap.Error(summary.Err))
	} else {
		logger.Info("simulation finished",
			zap.Int64("succeeded", summary.Succeeded),
			zap.Int64("failed", summary.Failed),
			zap.Duration("duration", summary.Duration))
	}
	return summary, nil
}

// simulatedWork returns an action that takes d on clock
func simulatedWork(clock types.Clock, d time.Duration) worker.Action {
	return func(ctx context.Context) error {
		if d <= 0 {
			return nil
		}
		timer := clock.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WriteHeader prints the run configuration
func WriteHeader(w io.Writer, opts Options) {
	fmt.Fprintf(w, "Failure Probability: %.2f%%\n", opts.FailureProbability*100)
	fmt.Fprintf(w, "Number of Worker Threads: %d\n", opts.NumThreads)
	fmt.Fprintf(w, "Max Retries: %d\n\n", opts.MaxRetries)
}

// Report prints the execution summary
func (s *Summary) Report(w io.Writer) {
	result := "Passed"
	if !s.Valid() {
		result = "Failed"
	}

	fmt.Fprintf(w, "\nExecution Summary:\n")
	fmt.Fprintf(w, "Total tasks: %d\n", s.TotalTasks)
	fmt.Fprintf(w, "Successfully processed: %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Validation %s: All tasks accounted for.\n", result)
}
