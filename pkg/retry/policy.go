// Package retry provides retry mechanism strategies and implementations
package retry

import (
	"fmt"
	"math"

	"github.com/jzx17/taskpool/pkg/types"
)

// Policy decides how many attempts a work item gets and how likely each
// attempt is to be failed by simulation
type Policy struct {
	// FailureProbability is the chance in [0,1] that an attempt is failed
	FailureProbability float64

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int

	// Backoff builds the delay sequence between attempts; nil retries immediately
	Backoff BackoffFactory
}

// PolicyOption is a configuration option for retry policies
type PolicyOption func(*Policy)

// WithBackoff sets the backoff factory
func WithBackoff(factory BackoffFactory) PolicyOption {
	return func(p *Policy) {
		p.Backoff = factory
	}
}

// NewPolicy creates a validated retry policy
func NewPolicy(failureProbability float64, maxRetries int, opts ...PolicyOption) (*Policy, error) {
	p := &Policy{
		FailureProbability: failureProbability,
		MaxRetries:         maxRetries,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects out-of-range values
func (p *Policy) Validate() error {
	if math.IsNaN(p.FailureProbability) || p.FailureProbability < 0 || p.FailureProbability > 1 {
		return types.NewConfigError("failure probability", p.FailureProbability, "must be between 0 and 1")
	}
	if p.MaxRetries < 0 {
		return types.NewConfigError("max retries", p.MaxRetries, "must not be negative")
	}
	return nil
}

// MaxAttempts returns the total attempts allowed per item
func (p *Policy) MaxAttempts() int {
	return p.MaxRetries + 1
}

// String returns a short description used in logs
func (p *Policy) String() string {
	return fmt.Sprintf("failure_probability=%.2f max_retries=%d", p.FailureProbability, p.MaxRetries)
}

func (p *Policy) newBackoff(seed int64) BackoffStrategy {
	if p.Backoff == nil {
		return NoBackoff{}
	}
	return p.Backoff(seed)
}
