package scheduler

import (
	"sync"
	"time"
)

type timerEntry struct {
	timer    *time.Timer
	gen      uint64
	deadline time.Time
}

// Timers is the wall-clock Scheduler. Callbacks fire on the Poster's
// goroutine; a callback superseded after its timer fired never runs.
type Timers struct {
	mu      sync.Mutex
	poster  Poster
	entries map[string]*timerEntry
	gen     uint64
}

// NewTimers creates a scheduler that posts callbacks through p
func NewTimers(p Poster) *Timers {
	return &Timers{
		poster:  p,
		entries: make(map[string]*timerEntry),
	}
}

// Schedule implements Scheduler
func (t *Timers) Schedule(name string, after time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[name]; ok {
		e.timer.Stop()
	}

	t.gen++
	gen := t.gen
	entry := &timerEntry{gen: gen, deadline: time.Now().Add(after)}
	entry.timer = time.AfterFunc(after, func() {
		t.poster.Post(func() {
			if !t.claim(name, gen) {
				return
			}
			fn()
		})
	})
	t.entries[name] = entry
}

// claim removes name if it still belongs to generation gen
func (t *Timers) claim(name string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[name]
	if !ok || e.gen != gen {
		return false
	}
	delete(t.entries, name)
	return true
}

// Cancel implements Scheduler
func (t *Timers) Cancel(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[name]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(t.entries, name)
	return true
}

// Pending implements Scheduler
func (t *Timers) Pending(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[name]
	return ok
}

// Deadline implements Scheduler
func (t *Timers) Deadline(name string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// CancelAll implements Scheduler
func (t *Timers) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, name)
	}
}

// Now implements Scheduler
func (t *Timers) Now() time.Time {
	return time.Now()
}
