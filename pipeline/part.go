package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kbukum/pipekit/buffer"
)

// State is the lifecycle state of a worker or of a whole running pipeline.
type State int

const (
	StateReady State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Part is one checkpoint in a pipeline's ledger: a *BufferPart or a *WorkerPart.
type Part interface {
	isPart()
}

// BufferPart records a buffer created while wiring.
type BufferPart struct {
	Buffer buffer.Buffer
}

func (*BufferPart) isPart() {}

// WorkerPart records a named worker and the unit of work scheduled on it.
type WorkerPart struct {
	name     string
	verb     string
	progress Progress
	unit     *unit
	task     *task
}

func (*WorkerPart) isPart() {}

// Name is the name the worker was added under.
func (w *WorkerPart) Name() string { return w.name }

// Verb describes what the worker does, e.g. "reading" or "transforming".
// It is empty until work is scheduled.
func (w *WorkerPart) Verb() string { return w.verb }

// Progress returns the worker's progress counter.
func (w *WorkerPart) Progress() *Progress { return &w.progress }

// State derives the worker state from its task handle.
func (w *WorkerPart) State() State { return w.task.state() }

// Err returns the error the worker ended with, if it has ended.
func (w *WorkerPart) Err() error { return w.task.result() }

// Scheduled reports whether a unit of work is attached.
func (w *WorkerPart) Scheduled() bool { return w.unit != nil }

// Func is a unit of work. It must honour ctx and may report progress.
type Func func(ctx context.Context, p *Progress) error

type unitKind int

const (
	unitSync unitKind = iota
	unitAsync
)

type unit struct {
	kind unitKind
	fn   Func
}

// task is the runtime handle of a worker's unit.
type task struct {
	started atomic.Bool
	once    sync.Once
	done    chan struct{}
	err     error
}

func newTask() *task {
	return &task{done: make(chan struct{})}
}

func (t *task) start() { t.started.Store(true) }

func (t *task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

func (t *task) result() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *task) state() State {
	select {
	case <-t.done:
		return classify(t.err)
	default:
	}
	if t.started.Load() {
		return StateRunning
	}
	return StateReady
}

// classify maps a worker's final error to its state. Errors caused by
// cancellation resolve as cancelled rather than failed.
func classify(err error) State {
	switch {
	case err == nil:
		return StateCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StateCancelled
	default:
		return StateFailed
	}
}
