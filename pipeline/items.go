package pipeline

import (
	"context"
	"iter"

	"github.com/kbukum/pipekit/buffer"
)

type itemBuf[T any] = *buffer.Items[T]

// FromSlice is an item source enumerating values in order.
func FromSlice[T any](values []T) ItemEnd[T] {
	return Terminal[itemBuf[T]]("slice", func(b itemBuf[T], c *Context) error {
		return c.ScheduleSync("enumerating", func(ctx context.Context, p *Progress) error {
			p.ReportTotal(int64(len(values)))
			for _, v := range values {
				if err := b.Add(ctx, v); err != nil {
					return err
				}
				p.AddProcessed(1)
			}
			b.CompleteAdding()
			return nil
		})
	}, nil)
}

// FromSeq is an item source enumerating seq. A negative total means the
// length is unknown.
func FromSeq[T any](seq iter.Seq[T], total int64) ItemEnd[T] {
	return Terminal[itemBuf[T]]("sequence", func(b itemBuf[T], c *Context) error {
		return c.ScheduleSync("enumerating", func(ctx context.Context, p *Progress) error {
			if total >= 0 {
				p.ReportTotal(total)
			}
			for v := range seq {
				if err := b.Add(ctx, v); err != nil {
					return err
				}
				p.AddProcessed(1)
			}
			b.CompleteAdding()
			return nil
		})
	}, nil)
}

// FromAction is an item sink calling fn for every value.
func FromAction[T any](name string, fn func(T) error) ItemEnd[T] {
	return Terminal[itemBuf[T]](name, nil, func(b itemBuf[T], c *Context) error {
		return c.ScheduleSync("calling", func(ctx context.Context, p *Progress) error {
			return drain(ctx, b, p, fn)
		})
	})
}

// FromAsyncAction is an item sink calling fn for every value. fn receives
// the pipeline context and should return promptly once it is cancelled.
func FromAsyncAction[T any](name string, fn func(context.Context, T) error) ItemEnd[T] {
	return Terminal[itemBuf[T]](name, nil, func(b itemBuf[T], c *Context) error {
		return c.ScheduleAsync("calling", func(ctx context.Context, p *Progress) error {
			return drain(ctx, b, p, func(v T) error { return fn(ctx, v) })
		})
	})
}

// Blackhole is an item sink discarding every value.
func Blackhole[T any]() ItemEnd[T] {
	return Terminal[itemBuf[T]]("blackhole", nil, func(b itemBuf[T], c *Context) error {
		return c.ScheduleSync("discarding", func(ctx context.Context, p *Progress) error {
			return drain(ctx, b, p, func(T) error { return nil })
		})
	})
}

// Collect is an item sink appending every value to *dst. *dst must not be
// read until the pipeline has resolved.
func Collect[T any](dst *[]T) ItemEnd[T] {
	return Terminal[itemBuf[T]]("collection", nil, func(b itemBuf[T], c *Context) error {
		return c.ScheduleSync("collecting", func(ctx context.Context, p *Progress) error {
			return drain(ctx, b, p, func(v T) error {
				*dst = append(*dst, v)
				return nil
			})
		})
	})
}

// FromChannel exchanges values over ch. Sucking receives until ch is closed;
// blowing sends every value and closes ch once the buffer is drained.
func FromChannel[T any](ch chan T) ItemEnd[T] {
	return Terminal[itemBuf[T]]("channel",
		func(b itemBuf[T], c *Context) error {
			return c.ScheduleAsync("receiving", func(ctx context.Context, p *Progress) error {
				for {
					select {
					case v, ok := <-ch:
						if !ok {
							b.CompleteAdding()
							return nil
						}
						if err := b.Add(ctx, v); err != nil {
							return err
						}
						p.AddProcessed(1)
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			})
		},
		func(b itemBuf[T], c *Context) error {
			return c.ScheduleAsync("sending", func(ctx context.Context, p *Progress) error {
				err := drain(ctx, b, p, func(v T) error {
					select {
					case ch <- v:
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				})
				if err != nil {
					return err
				}
				close(ch)
				return nil
			})
		},
	)
}

// drain consumes b to completion, calling fn for each value.
func drain[T any](ctx context.Context, b itemBuf[T], p *Progress, fn func(T) error) error {
	for v, err := range b.Consume(ctx) {
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
		p.AddProcessed(1)
	}
	return nil
}
