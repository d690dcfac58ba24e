package worker

import (
	"fmt"
	"sync/atomic"

	"github.com/jzx17/taskpool/pkg/types"
)

// Counts is a point-in-time copy of OutcomeCounters
type Counts struct {
	Success int64
	Fail    int64
}

// Total returns Success + Fail
func (c Counts) Total() int64 {
	return c.Success + c.Fail
}

// OutcomeCounters tallies terminal outcomes. Safe for concurrent use.
type OutcomeCounters struct {
	success atomic.Int64
	fail    atomic.Int64
}

// NewOutcomeCounters creates zeroed counters
func NewOutcomeCounters() *OutcomeCounters {
	return &OutcomeCounters{}
}

// RecordSuccess counts one completed item
func (c *OutcomeCounters) RecordSuccess() {
	c.success.Add(1)
}

// RecordFailure counts one permanently failed item
func (c *OutcomeCounters) RecordFailure() {
	c.fail.Add(1)
}

// Record counts outcome
func (c *OutcomeCounters) Record(outcome types.Outcome) {
	if outcome == types.OutcomeSuccess {
		c.RecordSuccess()
		return
	}
	c.RecordFailure()
}

// Success returns the success count
func (c *OutcomeCounters) Success() int64 {
	return c.success.Load()
}

// Fail returns the failure count
func (c *OutcomeCounters) Fail() int64 {
	return c.fail.Load()
}

// Snapshot reads both counters.
// The two loads are not atomic together; read after the pool is joined
// for an exact pair.
func (c *OutcomeCounters) Snapshot() Counts {
	return Counts{Success: c.success.Load(), Fail: c.fail.Load()}
}

// Total returns the number of recorded outcomes
func (c *OutcomeCounters) Total() int64 {
	return c.Snapshot().Total()
}

// Validate checks that every submitted item has exactly one outcome
func (c *OutcomeCounters) Validate(submitted int64) error {
	s := c.Snapshot()
	if s.Total() != submitted {
		return fmt.Errorf("%w: success %d + fail %d != submitted %d",
			types.ErrCountMismatch, s.Success, s.Fail, submitted)
	}
	return nil
}
