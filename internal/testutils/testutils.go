// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewLogger returns a logger that writes through t.Log
func NewLogger(t testing.TB) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// Recorder records ids in the order they were observed
type Recorder struct {
	mu  sync.Mutex
	ids []int
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends id
func (r *Recorder) Record(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

// IDs returns a copy of the recorded ids
func (r *Recorder) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.ids))
	copy(out, r.ids)
	return out
}

// Counts returns how many times each id was recorded
func (r *Recorder) Counts() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[int]int, len(r.ids))
	for _, id := range r.ids {
		counts[id]++
	}
	return counts
}

// Len returns the number of recorded ids
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// WaitTimeout waits for wg or fails the test after timeout
func WaitTimeout(t testing.TB, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v", timeout)
	}
}
