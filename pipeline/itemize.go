package pipeline

import (
	"context"
	"io"
	"iter"
)

// ParseFunc reads values from r and passes each to emit, stopping at the
// first error emit returns.
type ParseFunc[T, C any] func(ctx context.Context, r io.Reader, emit func(T) error, cfg C) error

// SerializeFunc writes every value of items to w. It must stop at the first
// error the sequence yields and return it.
type SerializeFunc[T, C any] func(ctx context.Context, w io.Writer, items iter.Seq2[T, error], cfg C) error

// Itemize turns a byte end into an item end. Sucking parses the bytes inner
// produces into values; blowing serializes values into bytes written into
// inner. parse or serialize may be nil to make the end one-directional.
func Itemize[T, C any](inner StreamEnd, name string, cfg C, parse ParseFunc[T, C], serialize SerializeFunc[T, C]) ItemEnd[T] {
	var forward Bridge[byteBuf, itemBuf[T]]
	if parse != nil {
		forward = func(src byteBuf, dst itemBuf[T], c *Context) error {
			return c.ScheduleSync("parsing", func(ctx context.Context, p *Progress) error {
				r := src.Reader()
				emit := func(v T) error {
					if err := dst.Add(ctx, v); err != nil {
						return err
					}
					p.AddProcessed(1)
					return nil
				}
				if err := parse(ctx, r, emit, cfg); err != nil {
					return err
				}
				if _, err := io.Copy(io.Discard, r); err != nil {
					return err
				}
				dst.CompleteAdding()
				return nil
			})
		}
	}
	var backward Bridge[itemBuf[T], byteBuf]
	if serialize != nil {
		backward = func(src itemBuf[T], dst byteBuf, c *Context) error {
			return c.ScheduleSync("serializing", func(ctx context.Context, p *Progress) error {
				w := dst.Writer()
				items := func(yield func(T, error) bool) {
					for v, err := range src.Consume(ctx) {
						if err == nil {
							p.AddProcessed(1)
						}
						if !yield(v, err) {
							return
						}
					}
				}
				if err := serialize(ctx, w, items, cfg); err != nil {
					return err
				}
				return w.Close()
			})
		}
	}
	return Nested[byteBuf, itemBuf[T]](inner, name, forward, backward)
}
