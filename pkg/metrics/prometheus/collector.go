// Package prometheus exports pool activity as Prometheus metrics
package prometheus

import (
	"time"

	"github.com/jzx17/taskpool/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements types.MetricsCollector using Prometheus
type Collector struct {
	itemsSubmitted prometheus.Counter
	itemsCompleted *prometheus.CounterVec
	attemptsFailed prometheus.Counter
	itemAttempts   prometheus.Histogram
	itemDuration   prometheus.Histogram
	queueDepth     prometheus.Gauge
	workersRunning prometheus.Gauge
}

var _ types.MetricsCollector = (*Collector)(nil)

// NewCollector creates a collector registered with reg.
// A nil reg creates the metrics without registering them.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		itemsSubmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "taskpool_items_submitted_total",
				Help: "Total number of work items accepted by the pool",
			},
		),
		itemsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpool_items_completed_total",
				Help: "Total number of work items with a terminal outcome",
			},
			[]string{"outcome"},
		),
		attemptsFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "taskpool_attempts_failed_total",
				Help: "Total number of failed attempts, including final ones",
			},
		),
		itemAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskpool_item_attempts",
				Help:    "Attempts used per work item",
				Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
			},
		),
		itemDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskpool_item_duration_seconds",
				Help:    "Work item processing duration in seconds, retries included",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskpool_queue_depth",
				Help: "Current number of queued work items",
			},
		),
		workersRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskpool_workers_running",
				Help: "Current number of workers that have not stopped",
			},
		),
	}
}

// ItemSubmitted records an accepted submission
func (c *Collector) ItemSubmitted() {
	c.itemsSubmitted.Inc()
}

// ItemCompleted records a terminal outcome
func (c *Collector) ItemCompleted(outcome types.Outcome, attempts int, duration time.Duration) {
	c.itemsCompleted.WithLabelValues(outcome.String()).Inc()
	c.itemAttempts.Observe(float64(attempts))
	c.itemDuration.Observe(duration.Seconds())
}

// AttemptFailed records a failed attempt
func (c *Collector) AttemptFailed() {
	c.attemptsFailed.Inc()
}

// QueueDepth sets the queue depth gauge
func (c *Collector) QueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// WorkersRunning sets the running workers gauge
func (c *Collector) WorkersRunning(n int) {
	c.workersRunning.Set(float64(n))
}
