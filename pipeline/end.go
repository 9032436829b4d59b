package pipeline

import (
	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/errors"
)

// End is a pipe end: a reusable description of a data source, a data sink,
// or a decorator around another end. Run wires the end against the buffer
// next, in the direction given by c.Mode(), recording the buffers and
// workers it creates in c. Run never blocks and never performs I/O itself;
// any error it returns is a wiring error.
type End[B buffer.Buffer] interface {
	Run(next B, c *Context) error
}

// EndFunc adapts a function to End.
type EndFunc[B buffer.Buffer] func(next B, c *Context) error

// Run implements End.
func (f EndFunc[B]) Run(next B, c *Context) error { return f(next, c) }

// StreamEnd is an end exchanging bytes.
type StreamEnd = End[*buffer.Bytes]

// ItemEnd is an end exchanging values of type T.
type ItemEnd[T any] = End[*buffer.Items[T]]

// Attach schedules the work of a terminal end against its buffer.
type Attach[B buffer.Buffer] func(b B, c *Context) error

// Bridge schedules the work of a decorator moving data from src to dst.
type Bridge[S, D buffer.Buffer] func(src S, dst D, c *Context) error

// Terminal builds an end with no inner end. producer fills the next buffer
// when sucked from; consumer drains it when blown into. A nil function makes
// the end unusable in that direction, which is reported when wiring.
func Terminal[B buffer.Buffer](name string, producer, consumer Attach[B]) End[B] {
	return EndFunc[B](func(next B, c *Context) error {
		c.AddWorker(name)
		switch c.Mode() {
		case ModeSuck:
			if producer == nil {
				return errors.DirectionNotSupported("sucking from", name)
			}
			return producer(next, c)
		case ModeBlow:
			if consumer == nil {
				return errors.DirectionNotSupported("blowing into", name)
			}
			return consumer(next, c)
		default:
			return nil
		}
	})
}

// Nested builds a decorator around inner. A fresh buffer of kind NB sits
// between inner and the decorator's worker; forward moves data out of it
// when sucking, backward moves data into it when blowing.
func Nested[NB, B buffer.Buffer](inner End[NB], name string, forward Bridge[NB, B], backward Bridge[B, NB]) End[B] {
	return EndFunc[B](func(next B, c *Context) error {
		nb := buffer.Make[NB](c.Sizing())
		if err := inner.Run(nb, c); err != nil {
			return err
		}
		c.AddBuffer(nb)
		c.AddWorker(name)
		switch c.Mode() {
		case ModeSuck:
			if forward == nil {
				return errors.DirectionNotSupported("sucking from", name)
			}
			return forward(nb, next, c)
		case ModeBlow:
			if backward == nil {
				return errors.DirectionNotSupported("blowing into", name)
			}
			return backward(next, nb, c)
		default:
			return nil
		}
	})
}

// Probe wires end in probe mode and returns the resulting ledger. No work is
// scheduled, so the graph's structure can be inspected without running it.
func Probe[B buffer.Buffer](end End[B], sizing buffer.Sizing) ([]Part, error) {
	c := NewContext(ModeProbe, sizing)
	if err := end.Run(buffer.Make[B](c.Sizing()), c); err != nil {
		return nil, err
	}
	return c.Parts(), nil
}
