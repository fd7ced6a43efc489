package scheduler

import (
	"context"
	"log/slog"
	"sync"
)

// Loop is a single-goroutine task queue. Everything posted to it runs
// sequentially on the goroutine that called Run.
type Loop struct {
	tasks   chan func()
	done    chan struct{}
	once    sync.Once
	tasksWG sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewLoop creates a loop with the given queue size
func NewLoop(size int, logger *slog.Logger) *Loop {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		tasks:  make(chan func(), size),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Post queues fn. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Go runs task on a worker goroutine and posts done back to the loop.
// Tasks receive a context that is cancelled when the loop stops.
func (l *Loop) Go(task func(ctx context.Context) error, done func(err error)) {
	l.tasksWG.Add(1)
	NewWorkers(l.ctx, l, l.logger).Go(func(ctx context.Context) error {
		defer l.tasksWG.Done()
		return task(ctx)
	}, done)
}

// Run executes posted tasks until ctx is cancelled or Stop is called
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

// Next blocks for the next posted task, letting a host event loop such as a
// bubbletea program drain the queue instead of Run. ok is false once the
// loop has stopped.
func (l *Loop) Next() (fn func(), ok bool) {
	select {
	case <-l.done:
		return nil, false
	case fn := <-l.tasks:
		return fn, true
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Stop ends Run and cancels worker contexts. Safe to call more than once.
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.done)
		l.cancel()
	})
}

// Shutdown waits for running worker tasks, then stops the loop. Tasks still
// running when ctx ends are cancelled.
func (l *Loop) Shutdown(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		l.tasksWG.Wait()
		close(idle)
	}()

	defer l.Stop()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the loop stops
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
