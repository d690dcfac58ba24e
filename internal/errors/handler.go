// Package errors provides handling strategies for faults raised by work items
package errors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrorHandler handles a fault raised while a worker ran an item.
// Handlers run on the worker goroutine and must not block for long.
type ErrorHandler interface {
	// HandleError handles the error, returns processed error or nil if handled
	HandleError(ctx context.Context, errCtx *ErrorContext) error

	// Name returns the name of the error handler
	Name() string
}

// ErrorContext defines context information when error occurs
type ErrorContext struct {
	// Error that occurred
	Error error

	// WorkerID is the worker that ran the item
	WorkerID int

	// ItemID is the id of the failing item
	ItemID int

	// Attempts is the number of attempts made before the outcome was recorded
	Attempts int

	// Timestamp when the error occurred
	Timestamp time.Time

	// Metadata contains additional metadata information
	Metadata map[string]interface{}
}

// NewErrorContext creates a new error context
func NewErrorContext(err error, workerID, itemID int) *ErrorContext {
	return &ErrorContext{
		Error:     err,
		WorkerID:  workerID,
		ItemID:    itemID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// WithMetadata adds a metadata entry
func (ec *ErrorContext) WithMetadata(key string, value interface{}) *ErrorContext {
	ec.Metadata[key] = value
	return ec
}

// HandlerFunc adapts a function to ErrorHandler
type HandlerFunc func(ctx context.Context, errCtx *ErrorContext) error

// HandleError implements the ErrorHandler interface
func (f HandlerFunc) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	return f(ctx, errCtx)
}

// Name returns the handler name
func (f HandlerFunc) Name() string {
	return "Func"
}

// LogHandler logs faults with zap and swallows them
type LogHandler struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewLogHandler creates a logging handler; faults are logged at error level
func NewLogHandler(logger *zap.Logger) *LogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogHandler{logger: logger, level: zap.NewAtomicLevelAt(zap.ErrorLevel)}
}

// SetLevel changes the level used for fault entries
func (h *LogHandler) SetLevel(level zap.AtomicLevel) {
	h.level = level
}

// HandleError implements the ErrorHandler interface
func (h *LogHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	fields := []zap.Field{
		zap.Int("worker_id", errCtx.WorkerID),
		zap.Int("item_id", errCtx.ItemID),
		zap.Int("attempts", errCtx.Attempts),
		zap.Error(errCtx.Error),
	}
	for k, v := range errCtx.Metadata {
		fields = append(fields, zap.Any(k, v))
	}

	if ce := h.logger.Check(h.level.Level(), "work item fault"); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

// Name returns the handler name
func (h *LogHandler) Name() string {
	return "Log"
}

// CollectingHandler keeps every fault it sees
type CollectingHandler struct {
	mu     sync.Mutex
	faults []*ErrorContext
}

// NewCollectingHandler creates an empty collecting handler
func NewCollectingHandler() *CollectingHandler {
	return &CollectingHandler{}
}

// HandleError implements the ErrorHandler interface
func (h *CollectingHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.faults = append(h.faults, errCtx)
	return nil
}

// Name returns the handler name
func (h *CollectingHandler) Name() string {
	return "Collect"
}

// Faults returns a copy of the collected faults
func (h *CollectingHandler) Faults() []*ErrorContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*ErrorContext, len(h.faults))
	copy(out, h.faults)
	return out
}

// Len returns the number of collected faults
func (h *CollectingHandler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.faults)
}

// chain runs handlers in order until one returns an error
type chain struct {
	handlers []ErrorHandler
}

// Chain combines handlers; nil entries are skipped
func Chain(handlers ...ErrorHandler) ErrorHandler {
	c := &chain{}
	for _, h := range handlers {
		if h != nil {
			c.handlers = append(c.handlers, h)
		}
	}
	return c
}

// HandleError implements the ErrorHandler interface
func (c *chain) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	for _, h := range c.handlers {
		if err := h.HandleError(ctx, errCtx); err != nil {
			return fmt.Errorf("handler %s: %w", h.Name(), err)
		}
	}
	return nil
}

// Name returns the handler name
func (c *chain) Name() string {
	return "Chain"
}
