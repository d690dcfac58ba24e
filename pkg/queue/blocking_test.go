package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/jzx17/taskpool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocking_FIFO(t *testing.T) {
	q := New[int]()

	for i := 1; i <= 200; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 200, q.Len())

	for i := 1; i <= 200; i++ {
		item, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, item)
	}
	assert.True(t, q.IsEmpty())
}

func TestBlocking_FIFOAcrossWrapAndGrow(t *testing.T) {
	q := New[int]()

	// move head forward so the ring wraps before it grows
	for i := 0; i < initialCapacity/2; i++ {
		require.NoError(t, q.Enqueue(-1))
		_, ok := q.Dequeue()
		require.True(t, ok)
	}

	for i := 0; i < initialCapacity*3; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	for i := 0; i < initialCapacity*3; i++ {
		item, ok := q.TryDequeue()
		require.True(t, ok)
		require.Equal(t, i, item)
	}
}

func TestBlocking_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := New[string]()

	got := make(chan string, 1)
	go func() {
		item, ok := q.Dequeue()
		if ok {
			got <- item
		}
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned before any item was enqueued")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Enqueue("hello"))

	select {
	case item := <-got:
		assert.Equal(t, "hello", item)
	case <-time.After(time.Second):
		t.Fatal("dequeue was not woken by enqueue")
	}
}

func TestBlocking_ShutdownWakesAllConsumers(t *testing.T) {
	q := New[int]()

	const consumers = 5
	var wg sync.WaitGroup
	results := make(chan bool, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Dequeue()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Shutdown()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not wake every blocked consumer")
	}

	close(results)
	for ok := range results {
		assert.False(t, ok)
	}
}

func TestBlocking_DrainAfterShutdown(t *testing.T) {
	q := New[int]()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	q.Shutdown()
	assert.False(t, q.Accepting())

	for i := 0; i < 3; i++ {
		item, ok := q.Dequeue()
		require.True(t, ok, "items queued before shutdown must still be delivered")
		assert.Equal(t, i, item)
	}

	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestBlocking_EnqueueAfterShutdownRejected(t *testing.T) {
	q := New[int]()
	q.Shutdown()
	q.Shutdown()

	err := q.Enqueue(1)
	assert.ErrorIs(t, err, types.ErrQueueClosed)
	assert.Equal(t, 0, q.Len())
}

func TestBlocking_TryDequeueEmpty(t *testing.T) {
	q := New[int]()
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestBlocking_ConcurrentProducersConsumers(t *testing.T) {
	q := New[int]()

	const (
		producers   = 4
		perProducer = 2500
		consumers   = 6
	)

	var consumerWG sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]int)

	for c := 0; c < consumers; c++ {
		consumerWG.Add(1)
		go func() {
			defer consumerWG.Done()
			for {
				item, ok := q.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				seen[item]++
				mu.Unlock()
			}
		}()
	}

	var producerWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		producerWG.Add(1)
		go func(base int) {
			defer producerWG.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Enqueue(base + i)
			}
		}(p * perProducer)
	}

	producerWG.Wait()
	q.Shutdown()
	consumerWG.Wait()

	require.Len(t, seen, producers*perProducer)
	for item, n := range seen {
		require.Equal(t, 1, n, "item %d dequeued %d times", item, n)
	}

	stats := q.Stats()
	assert.Equal(t, uint64(producers*perProducer), stats.Enqueued)
	assert.Equal(t, stats.Enqueued, stats.Dequeued)
	assert.Equal(t, 0, stats.Length)
	assert.False(t, stats.Accepting)
}
