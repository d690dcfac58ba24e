// Package config loads taskpool run settings from the environment and
// positional command-line arguments
package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

// Defaults used when a value is missing or rejected
const (
	DefaultTotalTasks         = 50
	DefaultFailureProbability = 0.8
	DefaultNumThreads         = 4
	DefaultMaxRetries         = 1
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultRetryDelay         = 10 * time.Millisecond
	DefaultRetryMaxDelay      = time.Second
)

// Backoff names accepted by TASKPOOL_BACKOFF
const (
	BackoffNone        = "none"
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
	BackoffJittered    = "jittered"
)

// Config holds all configuration for a simulation run
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Simulation configuration
	TotalTasks         int     `env:"TASKPOOL_TOTAL_TASKS" envDefault:"50"`
	FailureProbability float64 `env:"TASKPOOL_FAILURE_PROBABILITY" envDefault:"0.8"`
	NumThreads         int     `env:"TASKPOOL_NUM_THREADS" envDefault:"4"`
	MaxRetries         int     `env:"TASKPOOL_MAX_RETRIES" envDefault:"1"`
	Seed               int64   `env:"TASKPOOL_SEED" envDefault:"0"` // 0 picks a time based seed

	// Retry timing
	Backoff       string        `env:"TASKPOOL_BACKOFF" envDefault:"none"`
	RetryDelay    time.Duration `env:"TASKPOOL_RETRY_DELAY" envDefault:"10ms"`
	RetryMaxDelay time.Duration `env:"TASKPOOL_RETRY_MAX_DELAY" envDefault:"1s"`

	// WorkDuration is how long each simulated item takes
	WorkDuration time.Duration `env:"TASKPOOL_WORK_DURATION" envDefault:"0s"`

	ShutdownTimeout time.Duration `env:"TASKPOOL_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// HistoryDB is the SQLite database for run history; empty disables it
	HistoryDB string `env:"TASKPOOL_HISTORY_DB"`

	// ServeAddr keeps a status server listening after the run; empty disables it
	ServeAddr string `env:"TASKPOOL_SERVE_ADDR"`
}

// Load reads configuration from environment variables, applies positional
// arguments and normalizes the result. Unparsable or rejected values are
// replaced by their defaults and reported in warnings.
func Load(args []string) (*Config, []string, error) {
	cfg := &Config{}
	warnings, err := parseEnv(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	warnings = append(warnings, cfg.ApplyArgs(args)...)
	warnings = append(warnings, cfg.Normalize()...)
	return cfg, warnings, nil
}

// parseEnv reads cfg from the environment. Fields whose variable cannot be
// parsed keep their envDefault value and are reported as warnings; any
// other failure is returned.
func parseEnv(cfg *Config) ([]string, error) {
	err := env.Parse(cfg)
	if err == nil {
		return nil, nil
	}

	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil, err
	}

	defaults := Config{}
	if derr := env.ParseWithOptions(&defaults, env.Options{Environment: map[string]string{}}); derr != nil {
		return nil, derr
	}

	target := reflect.ValueOf(cfg).Elem()
	source := reflect.ValueOf(defaults)
	var warnings []string
	for _, e := range agg.Errors {
		var perr env.ParseError
		if !errors.As(e, &perr) {
			return nil, err
		}
		field := target.FieldByName(perr.Name)
		if !field.IsValid() || !field.CanSet() {
			return nil, err
		}
		def := source.FieldByName(perr.Name)
		field.Set(def)
		warnings = append(warnings, fmt.Sprintf("invalid %s: %v, using %v", perr.Name, perr.Err, def.Interface()))
	}
	return warnings, nil
}

// ApplyArgs overrides settings from positional arguments:
//
//	totalTasks failureProbability numThreads [maxRetries]
//
// Arguments are only considered when at least three are given. If any of
// them fails to parse, every run setting falls back to its default.
func (c *Config) ApplyArgs(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	if len(args) < 3 {
		return []string{fmt.Sprintf("expected at least 3 arguments, got %d; ignoring them", len(args))}
	}

	total, err1 := strconv.Atoi(args[0])
	prob, err2 := strconv.ParseFloat(args[1], 64)
	threads, err3 := strconv.Atoi(args[2])
	retries := c.MaxRetries
	var err4 error
	if len(args) > 3 {
		retries, err4 = strconv.Atoi(args[3])
	}

	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			c.TotalTasks = DefaultTotalTasks
			c.FailureProbability = DefaultFailureProbability
			c.NumThreads = DefaultNumThreads
			c.MaxRetries = DefaultMaxRetries
			return []string{fmt.Sprintf("invalid arguments, using defaults: %v", err)}
		}
	}

	c.TotalTasks = total
	c.FailureProbability = prob
	c.NumThreads = threads
	c.MaxRetries = retries
	return nil
}

// Normalize replaces out-of-range values with defaults and returns one
// warning per replaced field
func (c *Config) Normalize() []string {
	var warnings []string
	warn := func(field string, value interface{}, def interface{}) {
		warnings = append(warnings, fmt.Sprintf("invalid %s %v, using %v", field, value, def))
	}

	if c.TotalTasks < 0 {
		warn("total tasks", c.TotalTasks, DefaultTotalTasks)
		c.TotalTasks = DefaultTotalTasks
	}
	if math.IsNaN(c.FailureProbability) || c.FailureProbability < 0 || c.FailureProbability > 1 {
		warn("failure probability", c.FailureProbability, DefaultFailureProbability)
		c.FailureProbability = DefaultFailureProbability
	}
	if c.NumThreads < 1 {
		warn("number of threads", c.NumThreads, DefaultNumThreads)
		c.NumThreads = DefaultNumThreads
	}
	if c.MaxRetries < 0 {
		warn("max retries", c.MaxRetries, DefaultMaxRetries)
		c.MaxRetries = DefaultMaxRetries
	}

	switch c.Backoff {
	case BackoffNone, BackoffFixed, BackoffExponential, BackoffJittered:
	default:
		warn("backoff", c.Backoff, BackoffNone)
		c.Backoff = BackoffNone
	}
	if c.RetryDelay < 0 {
		warn("retry delay", c.RetryDelay, DefaultRetryDelay)
		c.RetryDelay = DefaultRetryDelay
	}
	if c.RetryMaxDelay < c.RetryDelay {
		warn("retry max delay", c.RetryMaxDelay, c.RetryDelay)
		c.RetryMaxDelay = c.RetryDelay
	}
	if c.WorkDuration < 0 {
		warn("work duration", c.WorkDuration, time.Duration(0))
		c.WorkDuration = 0
	}
	if c.ShutdownTimeout <= 0 {
		warn("shutdown timeout", c.ShutdownTimeout, DefaultShutdownTimeout)
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		warn("log level", c.LogLevel, "info")
		c.LogLevel = "info"
	}

	return warnings
}

// EffectiveSeed returns Seed, or a time based seed when Seed is 0
func (c *Config) EffectiveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}
