package serial

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
)

// ErrClosed is returned by Execute once the scheduler has been joined.
var ErrClosed = errors.New(errors.ErrCodeSchedulerClosed, "scheduler is joined", http.StatusServiceUnavailable)

// DefaultQueueSize bounds the queue when WithQueueSize is not given.
const DefaultQueueSize = 256

// ErrorHandler receives panics recovered from units and refused inline
// requests.
type ErrorHandler func(err error)

type options struct {
	log     *logger.Logger
	onError ErrorHandler
	size    int
}

// Option configures a Scheduler.
type Option func(*options)

// WithLogger sets the logger used by the default error handler.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithErrorHandler replaces the default handler, which logs.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

// WithQueueSize bounds the number of queued units not yet started. Execute
// blocks while the queue is full.
func WithQueueSize(n int) Option {
	return func(o *options) { o.size = max(n, 1) }
}

type job struct {
	run  func()
	skip func(error)
}

// Scheduler runs queued units one at a time, in submission order, on a
// single dedicated goroutine.
type Scheduler struct {
	ctx  context.Context
	opts options

	mu     sync.Mutex
	queue  []job
	closed bool
	err    error

	wake  chan struct{}
	space chan struct{}
	done  chan struct{}
}

// New starts a scheduler. Cancelling ctx stops the loop; units still queued
// are skipped with the context error.
func New(ctx context.Context, opts ...Option) *Scheduler {
	o := options{size: DefaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("serial")
	}
	if o.onError == nil {
		log := o.log
		o.onError = func(err error) {
			log.Error("serial scheduler error", logger.Fields(logger.FieldError, err.Error()))
		}
	}

	s := &Scheduler{
		ctx:  ctx,
		opts: o,
		wake:  make(chan struct{}, 1),
		space: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go s.loop()
	return s
}

// Execute queues run, blocking while the queue is full. If the scheduler
// stops before run is reached, skip is called with the reason instead. It
// returns ErrClosed after Join, or the context error once the scheduler was
// cancelled. A unit must not call Execute on its own scheduler while the
// queue may be full.
func (s *Scheduler) Execute(run func(), skip func(error)) error {
	s.mu.Lock()
	for {
		if s.closed {
			err := s.err
			s.mu.Unlock()
			return err
		}
		if err := s.ctx.Err(); err != nil {
			s.mu.Unlock()
			return err
		}
		if len(s.queue) < s.opts.size {
			break
		}
		s.mu.Unlock()
		select {
		case <-s.space:
		case <-s.done:
		case <-s.ctx.Done():
		}
		s.mu.Lock()
	}
	s.queue = append(s.queue, job{run: run, skip: skip})
	room := len(s.queue) < s.opts.size
	s.mu.Unlock()
	if room {
		signal(s.space)
	}
	signal(s.wake)
	return nil
}

// ExecuteInline refuses to run a unit on the caller's goroutine, which would
// break the single-goroutine guarantee. The refusal is reported to the error
// handler.
func (s *Scheduler) ExecuteInline(func()) bool {
	s.opts.onError(errors.New(errors.ErrCodeInlineRefused, "refused to inline a queued unit", http.StatusConflict))
	return false
}

// Len returns the number of queued units not yet started.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Join stops accepting units, runs the ones already queued and waits for the
// scheduler goroutine to exit. It is safe to call more than once.
func (s *Scheduler) Join() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.err = ErrClosed
	}
	s.mu.Unlock()
	signal(s.wake)
	<-s.done
}

// Done is closed once the scheduler goroutine has exited.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		j, ok := s.next()
		if !ok {
			return
		}
		if stop := s.run(j); stop {
			s.shutdown(context.Canceled)
			return
		}
	}
}

// next blocks for the next unit. It reports false once the scheduler is
// joined and drained, or cancelled.
func (s *Scheduler) next() (job, bool) {
	for {
		if err := s.ctx.Err(); err != nil {
			s.shutdown(err)
			return job{}, false
		}

		s.mu.Lock()
		if len(s.queue) > 0 {
			j := s.queue[0]
			s.queue[0] = job{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			signal(s.space)
			return j, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return job{}, false
		}

		select {
		case <-s.wake:
		case <-s.ctx.Done():
		}
	}
}

// run executes one unit. A panic carrying a cancellation error stops the
// scheduler silently; any other panic is reported.
func (s *Scheduler) run(j job) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Panicked(r)
			if stderrors.Is(err, context.Canceled) {
				stop = true
				return
			}
			s.opts.onError(err)
		}
	}()
	j.run()
	return false
}

func (s *Scheduler) shutdown(reason error) {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	if !s.closed {
		s.closed = true
		s.err = reason
	}
	s.mu.Unlock()

	for _, j := range pending {
		if j.skip != nil {
			j.skip(reason)
		}
	}
}
