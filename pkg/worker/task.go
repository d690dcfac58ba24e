// Package worker provides the worker pool implementation
package worker

import (
	"context"
	"fmt"

	"github.com/jzx17/taskpool/pkg/types"
)

// Action is the work carried by a WorkItem
type Action func(ctx context.Context) error

// Func adapts a function with no arguments and no result to an Action
func Func(fn func()) Action {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) error {
		fn()
		return nil
	}
}

// WorkItem is a unit of work submitted to the pool. Items are identified
// by id and never change after creation.
type WorkItem struct {
	id     int
	action Action
}

// NewWorkItem creates a work item
func NewWorkItem(id int, action Action) WorkItem {
	return WorkItem{id: id, action: action}
}

// ID returns the item id
func (w WorkItem) ID() int {
	return w.id
}

// String returns the item name used in logs and retry events
func (w WorkItem) String() string {
	return fmt.Sprintf("item-%d", w.id)
}

// Run runs the item's action once
func (w WorkItem) Run(ctx context.Context) error {
	if w.action == nil {
		return types.NewTaskError("run", w.id, types.ErrNilAction)
	}
	return w.action(ctx)
}
