// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrQueueClosed indicates the queue no longer accepts items
	ErrQueueClosed = errors.New("queue is closed")

	// ErrPoolClosed indicates the worker pool is shutting down or shut down
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrInvalidConfig indicates a configuration value was rejected
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNilAction indicates a work item has no action to run
	ErrNilAction = errors.New("work item has no action")

	// ErrInjectedFailure marks an attempt failed by failure simulation
	ErrInjectedFailure = errors.New("simulated failure")

	// ErrRetriesExhausted indicates every allowed attempt failed
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrCountMismatch indicates processed outcomes do not add up to submissions
	ErrCountMismatch = errors.New("outcome count mismatch")
)

// TaskError represents a fault raised while running a work item
type TaskError struct {
	// Operation is the name of the operation where the error occurred
	Operation string

	// ItemID is the id of the work item that failed
	ItemID int

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	return fmt.Sprintf("%s failed for item %d: %v", e.Operation, e.ItemID, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewTaskError creates a new task error
func NewTaskError(operation string, itemID int, cause error) *TaskError {
	return &TaskError{
		Operation: operation,
		ItemID:    itemID,
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds error context
func (e *TaskError) WithContext(key string, value interface{}) *TaskError {
	e.Context[key] = value
	return e
}

// ConfigError describes a single rejected configuration field
type ConfigError struct {
	Field string
	Value interface{}
	Msg   string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Msg)
}

// Unwrap lets errors.Is match ErrInvalidConfig
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// NewConfigError creates a configuration error for field
func NewConfigError(field string, value interface{}, msg string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Msg: msg}
}
