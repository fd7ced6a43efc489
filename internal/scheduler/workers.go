package scheduler

import (
	"context"
	"log/slog"
)

// Workers is an Executor that posts results through any Poster, e.g. a
// bubbletea program instead of a Loop
type Workers struct {
	ctx    context.Context
	poster Poster
	logger *slog.Logger
}

// NewWorkers creates an executor whose tasks see ctx
func NewWorkers(ctx context.Context, p Poster, logger *slog.Logger) *Workers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workers{ctx: ctx, poster: p, logger: logger}
}

// Go implements Executor
func (w *Workers) Go(task func(ctx context.Context) error, done func(err error)) {
	go func() {
		err := task(w.ctx)
		if done == nil {
			return
		}
		if !w.poster.Post(func() { done(err) }) {
			w.logger.Debug("dropped task result after poster stopped", "error", err)
		}
	}()
}

// PosterFunc adapts a function to Poster
type PosterFunc func(fn func()) bool

// Post implements Poster
func (f PosterFunc) Post(fn func()) bool {
	return f(fn)
}
