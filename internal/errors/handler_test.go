package errors

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestErrorContext tests basic functionality of error context
func TestErrorContext(t *testing.T) {
	testErr := errors.New("test error")

	errCtx := NewErrorContext(testErr, 2, 17)

	if errCtx.Error != testErr {
		t.Errorf("Expected error %v, got %v", testErr, errCtx.Error)
	}
	if errCtx.WorkerID != 2 || errCtx.ItemID != 17 {
		t.Errorf("Expected worker 2 item 17, got worker %d item %d", errCtx.WorkerID, errCtx.ItemID)
	}
	if errCtx.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	if len(errCtx.Metadata) != 0 {
		t.Errorf("Expected empty metadata, got %d items", len(errCtx.Metadata))
	}

	errCtx.WithMetadata("stage", "execute").WithMetadata("panic", true)
	if len(errCtx.Metadata) != 2 {
		t.Errorf("Expected 2 metadata entries, got %d", len(errCtx.Metadata))
	}
}

// TestLogHandler tests that faults are logged and swallowed
func TestLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewLogHandler(zap.New(core))

	errCtx := NewErrorContext(errors.New("boom"), 1, 5).WithMetadata("stack_trace", "trace")
	errCtx.Attempts = 2

	if err := handler.HandleError(context.Background(), errCtx); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if handler.Name() != "Log" {
		t.Errorf("Expected name Log, got %s", handler.Name())
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.ErrorLevel {
		t.Errorf("Expected error level, got %v", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["item_id"] != int64(5) || fields["worker_id"] != int64(1) || fields["attempts"] != int64(2) {
		t.Errorf("Unexpected fields %v", fields)
	}
	if fields["stack_trace"] != "trace" {
		t.Errorf("Expected metadata to be logged, got %v", fields)
	}

	handler.SetLevel(zap.NewAtomicLevelAt(zap.WarnLevel))
	_ = handler.HandleError(context.Background(), errCtx)
	if got := logs.All()[1].Level; got != zapcore.WarnLevel {
		t.Errorf("Expected warn level after SetLevel, got %v", got)
	}
}

// TestLogHandlerNilLogger tests the no-op fallback
func TestLogHandlerNilLogger(t *testing.T) {
	handler := NewLogHandler(nil)
	if err := handler.HandleError(context.Background(), NewErrorContext(errors.New("x"), 0, 0)); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

// TestCollectingHandler tests fault collection
func TestCollectingHandler(t *testing.T) {
	handler := NewCollectingHandler()

	for i := 0; i < 3; i++ {
		_ = handler.HandleError(context.Background(), NewErrorContext(errors.New("fault"), 0, i))
	}

	if handler.Len() != 3 {
		t.Fatalf("Expected 3 faults, got %d", handler.Len())
	}
	faults := handler.Faults()
	for i, f := range faults {
		if f.ItemID != i {
			t.Errorf("Expected item %d at position %d, got %d", i, i, f.ItemID)
		}
	}

	faults[0] = nil
	if handler.Faults()[0] == nil {
		t.Error("Faults should return a copy")
	}
}

// TestChain tests handler composition
func TestChain(t *testing.T) {
	collector := NewCollectingHandler()
	stop := errors.New("stop")
	var afterStop bool

	h := Chain(
		collector,
		nil,
		HandlerFunc(func(ctx context.Context, errCtx *ErrorContext) error {
			if errCtx.ItemID == 9 {
				return stop
			}
			return nil
		}),
		HandlerFunc(func(ctx context.Context, errCtx *ErrorContext) error {
			afterStop = true
			return nil
		}),
	)

	if err := h.HandleError(context.Background(), NewErrorContext(errors.New("a"), 0, 1)); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if !afterStop {
		t.Error("Expected every handler to run")
	}

	afterStop = false
	err := h.HandleError(context.Background(), NewErrorContext(errors.New("b"), 0, 9))
	if !errors.Is(err, stop) {
		t.Errorf("Expected stop error, got %v", err)
	}
	if afterStop {
		t.Error("Expected chain to stop at the failing handler")
	}
	if collector.Len() != 2 {
		t.Errorf("Expected collector to see both faults, got %d", collector.Len())
	}
	if h.Name() != "Chain" {
		t.Errorf("Expected name Chain, got %s", h.Name())
	}
}
