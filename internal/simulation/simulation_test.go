package simulation

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jzx17/taskpool/internal/config"
	"github.com/jzx17/taskpool/internal/testutils"
	"github.com/jzx17/taskpool/pkg/retry"
	"github.com/jzx17/taskpool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, opts Options) *Summary {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testutils.NewLogger(t)
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	summary, err := Run(context.Background(), opts)
	require.NoError(t, err)
	return summary
}

func TestRun_NoFailures(t *testing.T) {
	s := run(t, Options{TotalTasks: 10, FailureProbability: 0, NumThreads: 4, MaxRetries: 1, Seed: 1})

	assert.Equal(t, int64(10), s.Succeeded)
	assert.Equal(t, int64(0), s.Failed)
	assert.Equal(t, int64(10), s.Submitted)
	assert.Equal(t, int64(10), s.Attempts)
	assert.True(t, s.Valid())
	assert.Len(t, s.Workers, 4)
	assert.NotEmpty(t, s.RunID)
	assert.NotEmpty(t, s.PoolID)
}

func TestRun_CertainFailure(t *testing.T) {
	s := run(t, Options{TotalTasks: 10, FailureProbability: 1, NumThreads: 2, MaxRetries: 0, Seed: 1})

	assert.Equal(t, int64(0), s.Succeeded)
	assert.Equal(t, int64(10), s.Failed)
	assert.Equal(t, int64(10), s.Attempts)
	assert.True(t, s.Valid())
}

func TestRun_EveryRetryUsed(t *testing.T) {
	s := run(t, Options{TotalTasks: 25, FailureProbability: 1, NumThreads: 3, MaxRetries: 3, Seed: 1})

	assert.Equal(t, int64(25), s.Failed)
	assert.Equal(t, int64(100), s.Attempts)
}

func TestRun_CountInvariant(t *testing.T) {
	for _, threads := range []int{1, 2, 4, 8} {
		s := run(t, Options{TotalTasks: 500, FailureProbability: 0.8, NumThreads: threads, MaxRetries: 1, Seed: 7})

		assert.Equal(t, int64(500), s.Succeeded+s.Failed, "threads=%d", threads)
		assert.True(t, s.Valid())
		assert.GreaterOrEqual(t, s.Attempts, int64(500))
		assert.LessOrEqual(t, s.Attempts, int64(1000))
	}
}

func TestRun_ZeroTasks(t *testing.T) {
	s := run(t, Options{TotalTasks: 0, FailureProbability: 0.5, NumThreads: 2, MaxRetries: 1, Seed: 1})

	assert.Equal(t, int64(0), s.Succeeded+s.Failed)
	assert.True(t, s.Valid())
}

func TestRun_SingleWorkerIsReproducible(t *testing.T) {
	opts := Options{TotalTasks: 200, FailureProbability: 0.5, NumThreads: 1, MaxRetries: 2, Seed: 1234}

	first := run(t, opts)
	second := run(t, opts)

	assert.Equal(t, first.Succeeded, second.Succeeded)
	assert.Equal(t, first.Attempts, second.Attempts)
}

func TestRun_WorkDuration(t *testing.T) {
	s := run(t, Options{TotalTasks: 4, NumThreads: 4, WorkDuration: 5 * time.Millisecond, Seed: 1})

	assert.Equal(t, int64(4), s.Succeeded)
	assert.GreaterOrEqual(t, s.Duration, 5*time.Millisecond)
}

func TestRun_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"probability above one", Options{TotalTasks: 1, FailureProbability: 2, NumThreads: 1}},
		{"negative retries", Options{TotalTasks: 1, NumThreads: 1, MaxRetries: -1}},
		{"no threads", Options{TotalTasks: 1, NumThreads: 0}},
		{"negative tasks", Options{TotalTasks: -1, NumThreads: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.opts)
			assert.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}
}

func TestSummary_Report(t *testing.T) {
	s := &Summary{TotalTasks: 50, Succeeded: 18, Failed: 32}

	var buf bytes.Buffer
	s.Report(&buf)

	expected := "\nExecution Summary:\n" +
		"Total tasks: 50\n" +
		"Successfully processed: 18\n" +
		"Failed: 32\n" +
		"Validation Passed: All tasks accounted for.\n"
	assert.Equal(t, expected, buf.String())

	s.Err = types.ErrCountMismatch
	buf.Reset()
	s.Report(&buf)
	assert.Contains(t, buf.String(), "Validation Failed: All tasks accounted for.")
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	WriteHeader(&buf, Options{FailureProbability: 0.8, NumThreads: 4, MaxRetries: 1})

	assert.Equal(t, "Failure Probability: 80.00%\nNumber of Worker Threads: 4\nMax Retries: 1\n\n", buf.String())
}

func TestSummary_Record(t *testing.T) {
	s := run(t, Options{TotalTasks: 5, NumThreads: 2, Seed: 3})
	r := s.Record()

	assert.Equal(t, s.RunID, r.ID)
	assert.Equal(t, s.PoolID, r.PoolID)
	assert.Equal(t, int64(5), r.Succeeded)
	assert.Equal(t, int64(3), r.Seed)
	assert.True(t, r.Valid)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		TotalTasks:         20,
		FailureProbability: 0.3,
		NumThreads:         3,
		MaxRetries:         2,
		Seed:               11,
		Backoff:            config.BackoffFixed,
		RetryDelay:         time.Millisecond,
		RetryMaxDelay:      time.Second,
		ShutdownTimeout:    time.Minute,
	}

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 20, opts.TotalTasks)
	assert.Equal(t, 0.3, opts.FailureProbability)
	assert.Equal(t, 3, opts.NumThreads)
	assert.Equal(t, 2, opts.MaxRetries)
	assert.Equal(t, int64(11), opts.Seed)
	assert.Equal(t, time.Minute, opts.ShutdownTimeout)
	require.NotNil(t, opts.Backoff)
	assert.Equal(t, time.Millisecond, opts.Backoff(1).NextDelay(3))
}

func TestBackoffFromConfig(t *testing.T) {
	cfg := &config.Config{RetryDelay: 10 * time.Millisecond, RetryMaxDelay: 100 * time.Millisecond}

	cfg.Backoff = config.BackoffNone
	assert.Equal(t, time.Duration(0), BackoffFromConfig(cfg)(1).NextDelay(1))

	cfg.Backoff = config.BackoffExponential
	assert.Equal(t, 40*time.Millisecond, BackoffFromConfig(cfg)(1).NextDelay(3))

	cfg.Backoff = config.BackoffJittered
	_, ok := BackoffFromConfig(cfg)(1).(*retry.JitteredBackoff)
	assert.True(t, ok)
}
