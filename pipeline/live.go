package pipeline

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/observability"
)

// Live is a running pipeline. The first worker fault cancels every other
// worker; cancellation also aborts every buffer in the ledger so that
// blocked buffer I/O returns. Live resolves once all workers have resolved
// and all executors have been joined.
type Live struct {
	id      string
	name    string
	parts   []Part
	workers []*WorkerPart
	buffers []buffer.Buffer
	cancel  context.CancelCauseFunc
	done    chan struct{}
	started time.Time
	log     *logger.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	state    State
	err      error
	finished time.Time
}

func start(ctx context.Context, w *Wiring, o options) *Live {
	l := &Live{
		id:      uuid.NewString(),
		name:    o.name,
		parts:   w.Parts(),
		done:    make(chan struct{}),
		started: time.Now(),
		state:   StateRunning,
		metrics: o.metrics,
	}
	for _, p := range l.parts {
		switch v := p.(type) {
		case *BufferPart:
			l.buffers = append(l.buffers, v.Buffer)
		case *WorkerPart:
			l.workers = append(l.workers, v)
		}
	}
	l.log = o.log.WithFields(logger.Fields(logger.FieldPipeline, l.name, logger.FieldPipelineID, l.id))

	runCtx, cancel := context.WithCancelCause(logger.ContextWithPipelineID(ctx, l.id))
	l.cancel = cancel
	var span trace.Span
	if o.tracing {
		runCtx, span = observability.StartPipeline(runCtx, l.id, l.name)
	}
	g, gctx := errgroup.WithContext(runCtx)
	stopAbort := context.AfterFunc(gctx, func() {
		for _, b := range l.buffers {
			b.Abort(context.Canceled)
		}
	})

	var joiners []Joiner
	for _, wp := range l.workers {
		if wp.unit == nil {
			continue
		}
		if wp.unit.kind == unitAsync {
			g.Go(func() error { return l.run(gctx, wp, o) })
			continue
		}

		exec := o.executors(gctx)
		if j, ok := exec.(Joiner); ok {
			joiners = append(joiners, j)
		}
		g.Go(func() error {
			result := make(chan error, 1)
			err := exec.Execute(
				func() { result <- l.run(gctx, wp, o) },
				func(reason error) {
					if reason == nil {
						reason = context.Canceled
					}
					wp.task.finish(reason)
					result <- reason
				},
			)
			if err != nil {
				wp.task.finish(err)
				return err
			}
			return <-result
		})
	}

	l.log.Info("pipeline started", logger.Fields(logger.FieldParts, len(l.parts), "workers", len(l.workers)))
	if l.metrics != nil {
		l.metrics.RecordPipelineStart(ctx)
	}

	go func() {
		_ = g.Wait()
		stopAbort()
		for _, j := range joiners {
			j.Join()
		}
		l.finish()
		if span != nil {
			var failure error
			if l.State() == StateFailed {
				failure = l.Err()
			}
			observability.EndSpan(span, l.State().String(), failure)
		}
		cancel(nil)
		close(l.done)
	}()
	return l
}

// run executes one worker's unit, converting panics into faults.
func (l *Live) run(ctx context.Context, w *WorkerPart, o options) (err error) {
	w.task.start()
	begin := time.Now()

	if o.tracing {
		var span trace.Span
		ctx, span = observability.StartWorker(ctx, l.id, w.name, w.verb)
		defer func() {
			state := classify(err)
			var failure error
			if state == StateFailed {
				failure = err
			}
			observability.EndSpan(span, state.String(), failure)
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Panicked(r)
		}
		w.task.finish(err)

		state := classify(err)
		if o.metrics != nil {
			o.metrics.RecordWorker(context.WithoutCancel(ctx), l.name, w.name, state.String(), time.Since(begin), w.progress.Processed())
			if state == StateFailed {
				o.metrics.RecordError(context.WithoutCancel(ctx), string(errorCode(err)), w.name)
			}
		}
		fields := logger.MergeWithDuration(logger.WorkerFields(w.name, w.verb), time.Since(begin))
		fields[logger.FieldState] = state.String()
		if state == StateFailed {
			l.log.Error("worker failed", logger.MergeWithError(fields, err))
		} else {
			l.log.Debug("worker finished", fields)
		}
	}()

	return w.unit.fn(ctx, &w.progress)
}

func errorCode(err error) errors.ErrorCode {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return errors.ErrCodeStageFailed
}

func (l *Live) finish() {
	var failed []error
	cancelled := false
	for _, w := range l.workers {
		switch w.State() {
		case StateFailed:
			failed = append(failed, errors.StageFailed(w.name, w.verb, w.Err()))
		case StateCancelled:
			cancelled = true
		}
	}

	l.mu.Lock()
	switch {
	case len(failed) == 1:
		l.state, l.err = StateFailed, failed[0]
	case len(failed) > 1:
		l.state, l.err = StateFailed, stderrors.Join(failed...)
	case cancelled:
		l.state, l.err = StateCancelled, context.Canceled
	default:
		l.state = StateCompleted
	}
	l.finished = time.Now()
	state, err := l.state, l.err
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordPipelineEnd(context.Background(), l.name, state.String(), l.finished.Sub(l.started))
	}

	fields := logger.MergeWithDuration(logger.Fields(logger.FieldState, state.String()), l.finished.Sub(l.started))
	if state == StateFailed {
		l.log.Error("pipeline failed", logger.MergeWithError(fields, err))
		return
	}
	l.log.Info("pipeline finished", fields)
}

// ID returns the unique run identifier.
func (l *Live) ID() string { return l.id }

// Name returns the pipeline name.
func (l *Live) Name() string { return l.name }

// Parts returns the merged ledger.
func (l *Live) Parts() []Part { return slices.Clone(l.parts) }

// Cancel stops every worker. It returns immediately; use Wait to observe
// the outcome.
func (l *Live) Cancel() { l.cancel(context.Canceled) }

// Done is closed once the pipeline has resolved.
func (l *Live) Done() <-chan struct{} { return l.done }

// Wait blocks until the pipeline resolves and returns its error: nil on
// completion, the aggregate of worker faults on failure, or
// context.Canceled when it was cancelled without a fault.
func (l *Live) Wait() error {
	<-l.done
	return l.Err()
}

// Err returns the pipeline error once resolved, nil before.
func (l *Live) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// State returns the current state of the pipeline.
func (l *Live) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Elapsed returns the run time so far, or the total run time once resolved.
func (l *Live) Elapsed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished.IsZero() {
		return time.Since(l.started)
	}
	return l.finished.Sub(l.started)
}

// Report returns a snapshot of every part in ledger order. It is safe to
// call at any time from any goroutine.
func (l *Live) Report() Report {
	return Report{
		ID:      l.id,
		Name:    l.name,
		State:   l.State(),
		Elapsed: l.Elapsed(),
		Parts:   Snapshot(l.parts),
	}
}
