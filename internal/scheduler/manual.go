package scheduler

import (
	"context"
	"sort"
	"time"
)

type manualTask struct {
	name     string
	deadline time.Time
	seq      uint64
	fn       func()
}

// Manual is a deterministic Scheduler and Executor driven by Advance.
// Executor tasks run inline unless Hold is set, in which case they queue
// until Flush.
type Manual struct {
	now   time.Time
	tasks map[string]*manualTask
	seq   uint64

	Hold    bool
	pending []func()
}

// NewManual creates a manual clock starting at start
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		tasks: make(map[string]*manualTask),
	}
}

// Schedule implements Scheduler
func (m *Manual) Schedule(name string, after time.Duration, fn func()) {
	m.seq++
	m.tasks[name] = &manualTask{name: name, deadline: m.now.Add(after), seq: m.seq, fn: fn}
}

// Cancel implements Scheduler
func (m *Manual) Cancel(name string) bool {
	_, ok := m.tasks[name]
	delete(m.tasks, name)
	return ok
}

// Pending implements Scheduler
func (m *Manual) Pending(name string) bool {
	_, ok := m.tasks[name]
	return ok
}

// Deadline implements Scheduler
func (m *Manual) Deadline(name string) (time.Time, bool) {
	t, ok := m.tasks[name]
	if !ok {
		return time.Time{}, false
	}
	return t.deadline, true
}

// CancelAll implements Scheduler
func (m *Manual) CancelAll() {
	m.tasks = make(map[string]*manualTask)
}

// Now implements Scheduler
func (m *Manual) Now() time.Time {
	return m.now
}

// Len returns the number of pending tasks
func (m *Manual) Len() int {
	return len(m.tasks)
}

// Advance moves the clock forward by d, firing due tasks in deadline order.
// Tasks scheduled by a firing task run too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		next := m.next(target)
		if next == nil {
			break
		}
		delete(m.tasks, next.name)
		m.now = next.deadline
		next.fn()
	}
	m.now = target
}

func (m *Manual) next(limit time.Time) *manualTask {
	due := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !t.deadline.After(limit) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}

// Go implements Executor
func (m *Manual) Go(task func(ctx context.Context) error, done func(err error)) {
	run := func() {
		err := task(context.Background())
		if done != nil {
			done(err)
		}
	}
	if m.Hold {
		m.pending = append(m.pending, run)
		return
	}
	run()
}

// Flush runs held executor tasks in submission order
func (m *Manual) Flush() {
	for len(m.pending) > 0 {
		run := m.pending[0]
		m.pending = m.pending[1:]
		run()
	}
}

// Post implements Poster by running fn inline
func (m *Manual) Post(fn func()) bool {
	fn()
	return true
}
