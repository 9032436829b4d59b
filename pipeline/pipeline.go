package pipeline

import (
	"context"
	"slices"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/observability"
	"github.com/kbukum/pipekit/serial"
)

type options struct {
	name      string
	log       *logger.Logger
	sizing    buffer.Sizing
	executors ExecutorFactory
	serial    []serial.Option
	useSerial bool
	metrics   *observability.Metrics
	tracing   bool
}

// Option configures a Pipeline.
type Option func(*options)

// WithName names the pipeline in logs, traces and reports.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger used for lifecycle and fault messages.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSizing sets the capacities of every buffer the pipeline creates.
func WithSizing(s buffer.Sizing) Option {
	return func(o *options) { o.sizing = s }
}

// WithExecutorFactory sets how synchronous units are executed. The factory
// is called once per synchronous worker.
func WithExecutorFactory(f ExecutorFactory) Option {
	return func(o *options) {
		o.executors = f
		o.useSerial = false
	}
}

// WithSerialExecution gives every synchronous worker its own dedicated
// serial scheduler.
func WithSerialExecution(opts ...serial.Option) Option {
	return func(o *options) {
		o.useSerial = true
		o.serial = opts
	}
}

// WithMetrics records the outcome and duration of every worker.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracing wraps every worker in a span.
func WithTracing() Option {
	return func(o *options) { o.tracing = true }
}

func newOptions(opts []Option) options {
	o := options{name: "pipeline", sizing: buffer.DefaultSizing}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("pipeline")
	}
	o.sizing = o.sizing.OrDefault()
	if o.useSerial {
		serialOpts := append([]serial.Option{serial.WithLogger(o.log)}, o.serial...)
		o.executors = func(ctx context.Context) Executor {
			return serial.New(ctx, serialOpts...)
		}
	}
	if o.executors == nil {
		o.executors = defaultExecutorFactory
	}
	return o
}

// Pipeline joins a source end and a sink end over one shared buffer. It is
// an immutable description; every Start wires and runs it afresh.
type Pipeline[B buffer.Buffer] struct {
	source End[B]
	sink   End[B]
	opts   options
}

// New creates a pipeline sucking from source and blowing into sink.
func New[B buffer.Buffer](source, sink End[B], opts ...Option) *Pipeline[B] {
	return &Pipeline[B]{source: source, sink: sink, opts: newOptions(opts)}
}

// Wiring is the outcome of wiring a pipeline: the ledgers of both
// directions and the buffer shared between them.
type Wiring struct {
	Suck   []Part
	Shared buffer.Buffer
	Blow   []Part
}

// Parts returns the merged ledger: the suck parts in wiring order, the
// shared buffer, then the blow parts in reverse wiring order. The result
// reads from the origin of the data to its destination.
func (w *Wiring) Parts() []Part {
	parts := make([]Part, 0, len(w.Suck)+1+len(w.Blow))
	parts = append(parts, w.Suck...)
	parts = append(parts, &BufferPart{Buffer: w.Shared})
	blow := slices.Clone(w.Blow)
	slices.Reverse(blow)
	return append(parts, blow...)
}

// Build wires the pipeline without starting it. The source is wired in suck
// mode before the sink is wired in blow mode; the first wiring error is
// returned and nothing is scheduled.
func (p *Pipeline[B]) Build() (*Wiring, error) {
	shared := buffer.Make[B](p.opts.sizing)

	suck := NewContext(ModeSuck, p.opts.sizing)
	if err := p.source.Run(shared, suck); err != nil {
		return nil, err
	}
	blow := NewContext(ModeBlow, p.opts.sizing)
	if err := p.sink.Run(shared, blow); err != nil {
		return nil, err
	}
	return &Wiring{Suck: suck.Parts(), Shared: shared, Blow: blow.Parts()}, nil
}

// Start wires the pipeline and starts every worker. Wiring errors are
// returned before any work begins.
func (p *Pipeline[B]) Start(ctx context.Context) (*Live, error) {
	w, err := p.Build()
	if err != nil {
		return nil, err
	}
	return start(ctx, w, p.opts), nil
}

// Run starts the pipeline and waits for it to finish.
func (p *Pipeline[B]) Run(ctx context.Context) error {
	live, err := p.Start(ctx)
	if err != nil {
		return err
	}
	return live.Wait()
}

// Copy runs a pipeline from source to sink to completion.
func Copy[B buffer.Buffer](ctx context.Context, source, sink End[B], opts ...Option) error {
	return New(source, sink, opts...).Run(ctx)
}

// ReadAll sucks every value out of source.
func ReadAll[T any](ctx context.Context, source ItemEnd[T], opts ...Option) ([]T, error) {
	var out []T
	if err := Copy(ctx, source, Collect(&out), opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteAll blows values into sink.
func WriteAll[T any](ctx context.Context, sink ItemEnd[T], values []T, opts ...Option) error {
	return Copy(ctx, FromSlice(values), sink, opts...)
}
