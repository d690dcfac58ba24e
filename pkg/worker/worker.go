package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	errhandler "github.com/jzx17/taskpool/internal/errors"
	"github.com/jzx17/taskpool/pkg/queue"
	"github.com/jzx17/taskpool/pkg/types"
	"go.uber.org/zap"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents a worker waiting for an item
	WorkerStateIdle WorkerState = iota
	// WorkerStateRunning represents a worker processing an item
	WorkerStateRunning
	// WorkerStateDraining represents a stopped worker finishing queued items
	WorkerStateDraining
	// WorkerStateStopped represents a worker that has exited
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateRunning:
		return "running"
	case WorkerStateDraining:
		return "draining"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker consumes items from a shared queue until the queue reports
// end-of-stream
type Worker struct {
	id        int
	state     atomic.Int32
	running   atomic.Bool
	queue     *queue.Blocking[WorkItem]
	processor Processor
	counters  *OutcomeCounters

	// statistics
	totalProcessed atomic.Int64
	totalSucceeded atomic.Int64
	totalFailed    atomic.Int64
	totalAttempts  atomic.Int64
	lastItemTime   atomic.Int64 // Unix nanosecond timestamp

	errorHandler errhandler.ErrorHandler
	metrics      types.MetricsCollector
	logger       *zap.Logger
	clock        types.Clock
}

// WorkerOption configures a Worker
type WorkerOption func(*Worker)

// WithErrorHandler sets the handler that receives permanent failures
func WithErrorHandler(handler errhandler.ErrorHandler) WorkerOption {
	return func(w *Worker) {
		w.errorHandler = handler
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics types.MetricsCollector) WorkerOption {
	return func(w *Worker) {
		w.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithClock sets the clock for time operations
func WithClock(clock types.Clock) WorkerOption {
	return func(w *Worker) {
		w.clock = clock
	}
}

// NewWorker creates an idle worker reading from q and recording into counters
func NewWorker(id int, q *queue.Blocking[WorkItem], processor Processor, counters *OutcomeCounters, opts ...WorkerOption) *Worker {
	w := &Worker{
		id:        id,
		queue:     q,
		processor: processor,
		counters:  counters,
	}
	w.running.Store(true)

	for _, opt := range opts {
		opt(w)
	}

	if w.processor == nil {
		w.processor = Direct()(id)
	}
	if w.metrics == nil {
		w.metrics = types.NoopMetrics{}
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.errorHandler == nil {
		w.errorHandler = errhandler.NewLogHandler(w.logger)
	}
	if w.clock == nil {
		w.clock = types.NewRealClock()
	}
	w.logger = w.logger.With(zap.Int("worker_id", id))
	return w
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Running reports whether the worker has not been asked to stop
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Run processes items until the queue is shut down and empty.
// ctx is passed to every action; it does not end the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Debug("worker started")

	for {
		item, ok := w.queue.Dequeue()
		if !ok {
			w.state.Store(int32(WorkerStateStopped))
			w.logger.Debug("worker finished",
				zap.Int64("processed", w.totalProcessed.Load()),
				zap.Int64("failed", w.totalFailed.Load()))
			return nil
		}

		if w.running.Load() {
			w.state.CompareAndSwap(int32(WorkerStateIdle), int32(WorkerStateRunning))
		} else {
			w.state.Store(int32(WorkerStateDraining))
		}

		w.process(ctx, item)

		w.state.CompareAndSwap(int32(WorkerStateRunning), int32(WorkerStateIdle))
	}
}

// Stop asks the worker to finish. The worker keeps taking items until
// the queue reports end-of-stream. Only the first call has an effect.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	for {
		s := w.state.Load()
		if s == int32(WorkerStateStopped) || w.state.CompareAndSwap(s, int32(WorkerStateDraining)) {
			return
		}
	}
}

// process runs one item through the processor and records its outcome
func (w *Worker) process(ctx context.Context, item WorkItem) {
	start := w.clock.Now()
	w.lastItemTime.Store(start.UnixNano())
	w.metrics.QueueDepth(w.queue.Len())

	result := w.processor.Process(ctx, item, func(ctx context.Context) error {
		return w.execute(ctx, item)
	})

	w.counters.Record(result.Outcome)
	w.totalProcessed.Add(1)
	w.totalAttempts.Add(int64(result.Attempts))

	failedAttempts := result.Attempts
	if result.Outcome == types.OutcomeSuccess {
		w.totalSucceeded.Add(1)
		failedAttempts--
	} else {
		w.totalFailed.Add(1)
	}
	for i := 0; i < failedAttempts; i++ {
		w.metrics.AttemptFailed()
	}
	w.metrics.ItemCompleted(result.Outcome, result.Attempts, w.clock.Since(start))

	if result.Outcome == types.OutcomeFailure {
		w.handleError(ctx, item, result.Attempts, result.Err)
	}
}

// execute runs the item's action with panic recovery support
func (w *Worker) execute(ctx context.Context, item WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			var cause error
			switch v := r.(type) {
			case error:
				cause = fmt.Errorf("panic: %w", v)
			default:
				cause = fmt.Errorf("panic: %v", v)
			}

			err = types.NewTaskError("worker", item.ID(), cause).
				WithContext("stack_trace", string(buf[:n])).
				WithContext("worker_id", w.id)
		}
	}()

	return item.Run(ctx)
}

// handleError reports a permanent failure to the error handler
func (w *Worker) handleError(ctx context.Context, item WorkItem, attempts int, err error) {
	if err == nil {
		err = types.ErrRetriesExhausted
	}

	errCtx := errhandler.NewErrorContext(err, w.id, item.ID())
	errCtx.Attempts = attempts

	var taskErr *types.TaskError
	if errors.As(err, &taskErr) {
		for k, v := range taskErr.Context {
			errCtx.WithMetadata(k, v)
		}
	}

	if herr := w.errorHandler.HandleError(ctx, errCtx); herr != nil {
		w.logger.Warn("error handler failed",
			zap.Int("item_id", item.ID()),
			zap.String("handler", w.errorHandler.Name()),
			zap.Error(herr))
	}
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var last time.Time
	if ns := w.lastItemTime.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: w.totalProcessed.Load(),
		TotalSucceeded: w.totalSucceeded.Load(),
		TotalFailed:    w.totalFailed.Load(),
		TotalAttempts:  w.totalAttempts.Load(),
		LastItemTime:   last,
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int         `json:"id"`
	State          WorkerState `json:"-"`
	TotalProcessed int64       `json:"processed"`
	TotalSucceeded int64       `json:"succeeded"`
	TotalFailed    int64       `json:"failed"`
	TotalAttempts  int64       `json:"attempts"`
	LastItemTime   time.Time   `json:"last_item_time"`
}

// IsActive checks if Worker is processing an item
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateRunning || ws.State == WorkerStateDraining
}

// IsIdle checks if Worker is idle
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// GetSuccessRate gets the success rate
func (ws WorkerStats) GetSuccessRate() float64 {
	if ws.TotalProcessed == 0 {
		return 0
	}
	return float64(ws.TotalSucceeded) / float64(ws.TotalProcessed)
}
