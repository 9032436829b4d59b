package report

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/kbukum/pipekit/pipeline"
)

// Source is anything that can be reported on until it resolves, usually a
// *pipeline.Live.
type Source interface {
	Report() pipeline.Report
	Done() <-chan struct{}
}

type watchOptions struct {
	clock clock.Clock
}

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

// WithClock replaces the wall clock, e.g. with clock.NewMock() in tests.
func WithClock(c clock.Clock) WatchOption {
	return func(o *watchOptions) { o.clock = c }
}

// Watch renders src immediately, then every interval, and a final time once
// src resolves. It returns the first render error, or ctx.Err() when ctx
// ends before src does.
func Watch(ctx context.Context, src Source, interval time.Duration, r Renderer, opts ...WatchOption) error {
	o := watchOptions{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	ticker := o.clock.Ticker(interval)
	defer ticker.Stop()

	if err := r.Render(src.Report()); err != nil {
		return err
	}
	for {
		select {
		case <-src.Done():
			return r.Render(src.Report())
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Render(src.Report()); err != nil {
				return err
			}
		}
	}
}
