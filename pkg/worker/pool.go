package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	errhandler "github.com/jzx17/taskpool/internal/errors"
	"github.com/jzx17/taskpool/pkg/queue"
	"github.com/jzx17/taskpool/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PoolConfig defines configuration for the worker pool
type PoolConfig struct {
	// Size is the number of workers, fixed for the pool's lifetime
	Size int

	// Processor builds each worker's processor; defaults to Direct
	Processor ProcessorFactory

	// ErrorHandler receives permanent failures; defaults to a zap LogHandler
	ErrorHandler errhandler.ErrorHandler

	// Metrics receives pool activity (optional)
	Metrics types.MetricsCollector

	// Logger for pool and worker events (optional)
	Logger *zap.Logger

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Size:      4,
		Processor: Direct(),
		Clock:     types.NewRealClock(),
	}
}

// Pool runs a fixed number of workers over one shared blocking queue.
//
// Shutdown is drain-then-join: items accepted before Shutdown are all
// processed, later submissions are rejected.
type Pool struct {
	id       string
	config   *PoolConfig
	queue    *queue.Blocking[WorkItem]
	workers  []*Worker
	counters *OutcomeCounters
	logger   *zap.Logger

	submitted atomic.Int64
	running   atomic.Int32

	group        errgroup.Group
	done         chan struct{}
	joinErr      error
	shutdownOnce sync.Once
}

// NewPool creates the queue and starts config.Size workers.
// ctx is handed to every action; cancelling it interrupts retry waits
// but does not stop the workers. Call Shutdown to stop them.
func NewPool(ctx context.Context, config *PoolConfig) (*Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.Size <= 0 {
		return nil, types.NewConfigError("pool size", config.Size, "must be positive")
	}

	cfg := *config
	if cfg.Processor == nil {
		cfg.Processor = Direct()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = types.NoopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = types.NewRealClock()
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = errhandler.NewLogHandler(cfg.Logger)
	}

	id := uuid.NewString()
	p := &Pool{
		id:       id,
		config:   &cfg,
		queue:    queue.New[WorkItem](),
		workers:  make([]*Worker, cfg.Size),
		counters: NewOutcomeCounters(),
		logger:   cfg.Logger.With(zap.String("pool_id", id)),
		done:     make(chan struct{}),
	}

	for i := 0; i < cfg.Size; i++ {
		p.workers[i] = NewWorker(i, p.queue, cfg.Processor(i), p.counters,
			WithErrorHandler(cfg.ErrorHandler),
			WithMetrics(cfg.Metrics),
			WithLogger(p.logger),
			WithClock(cfg.Clock),
		)
	}

	p.running.Store(int32(cfg.Size))
	cfg.Metrics.WorkersRunning(cfg.Size)
	for _, w := range p.workers {
		w := w
		p.group.Go(func() error {
			defer func() {
				cfg.Metrics.WorkersRunning(int(p.running.Add(-1)))
			}()
			return w.Run(ctx)
		})
	}

	go func() {
		p.joinErr = p.group.Wait()
		close(p.done)
	}()

	p.logger.Info("worker pool started", zap.Int("size", cfg.Size))
	return p, nil
}

// ID returns the pool's run id
func (p *Pool) ID() string {
	return p.id
}

// Size returns the worker pool size
func (p *Pool) Size() int {
	return p.config.Size
}

// Submit queues item for execution. It never blocks. After Shutdown has
// begun it returns types.ErrPoolClosed.
func (p *Pool) Submit(item WorkItem) error {
	p.submitted.Add(1)
	if err := p.queue.Enqueue(item); err != nil {
		p.submitted.Add(-1)
		if errors.Is(err, types.ErrQueueClosed) {
			return fmt.Errorf("submit item %d: %w", item.ID(), types.ErrPoolClosed)
		}
		return err
	}

	p.config.Metrics.ItemSubmitted()
	p.config.Metrics.QueueDepth(p.queue.Len())
	p.logger.Debug("task submitted", zap.Int("item_id", item.ID()))
	return nil
}

// Shutdown stops every worker, closes the queue to new items and waits
// for the workers to drain it. If ctx ends first Shutdown returns
// ctx.Err() while the workers keep draining; calling it again waits again.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.logger.Info("worker pool shutting down", zap.Int("queued", p.queue.Len()))
		for _, w := range p.workers {
			w.Stop()
		}
		p.queue.Shutdown()
	})

	select {
	case <-p.done:
		c := p.counters.Snapshot()
		p.logger.Info("worker pool stopped",
			zap.Int64("submitted", p.submitted.Load()),
			zap.Int64("succeeded", c.Success),
			zap.Int64("failed", c.Fail))
		return p.joinErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once every worker has exited
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Counters returns the pool's outcome counters
func (p *Pool) Counters() *OutcomeCounters {
	return p.counters
}

// Submitted returns the number of accepted submissions
func (p *Pool) Submitted() int64 {
	return p.submitted.Load()
}

// Stats gets basic worker pool statistics
func (p *Pool) Stats() types.PoolStats {
	c := p.counters.Snapshot()
	return types.PoolStats{
		PoolSize:       p.config.Size,
		RunningWorkers: int(p.running.Load()),
		QueueLength:    p.queue.Len(),
		Submitted:      p.submitted.Load(),
		Succeeded:      c.Success,
		Failed:         c.Fail,
		Accepting:      p.queue.Accepting(),
	}
}

// WorkerStats gets statistics of all Workers
func (p *Pool) WorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}
