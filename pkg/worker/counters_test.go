package worker

import (
	"sync"
	"testing"

	"github.com/jzx17/taskpool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeCounters_Record(t *testing.T) {
	c := NewOutcomeCounters()

	c.RecordSuccess()
	c.Record(types.OutcomeSuccess)
	c.RecordFailure()
	c.Record(types.OutcomeFailure)
	c.Record(types.OutcomeFailure)

	assert.Equal(t, int64(2), c.Success())
	assert.Equal(t, int64(3), c.Fail())
	assert.Equal(t, int64(5), c.Total())
	assert.Equal(t, Counts{Success: 2, Fail: 3}, c.Snapshot())
}

func TestOutcomeCounters_Concurrent(t *testing.T) {
	c := NewOutcomeCounters()

	const goroutines, perGoroutine = 16, 1000
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if (g+i)%2 == 0 {
					c.RecordSuccess()
				} else {
					c.RecordFailure()
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine), c.Total())
	assert.Equal(t, c.Success(), c.Fail())
}

func TestOutcomeCounters_Validate(t *testing.T) {
	c := NewOutcomeCounters()
	c.RecordSuccess()
	c.RecordFailure()

	require.NoError(t, c.Validate(2))

	err := c.Validate(3)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCountMismatch)
	assert.Contains(t, err.Error(), "success 1 + fail 1 != submitted 3")
}
