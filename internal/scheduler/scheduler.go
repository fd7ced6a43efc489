// Package scheduler serializes all controller work onto one goroutine and
// owns every timer the controller uses.
package scheduler

import (
	"context"
	"time"
)

// Scheduler runs named one-shot tasks. Scheduling a name that is already
// pending replaces it, so each name has at most one live task.
type Scheduler interface {
	Schedule(name string, after time.Duration, fn func())
	Cancel(name string) bool
	Pending(name string) bool
	Deadline(name string) (time.Time, bool)
	CancelAll()
	Now() time.Time
}

// Executor runs a blocking task off the UI goroutine and delivers its result
// back on it
type Executor interface {
	Go(task func(ctx context.Context) error, done func(err error))
}

// Poster queues fn for execution on the UI goroutine
type Poster interface {
	Post(fn func()) bool
}
