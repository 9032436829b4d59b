package pipeline

import (
	"context"
	"iter"
)

// Map is an item transform around inner. Sucking applies fwd to what inner
// produces; blowing applies rev to what is written into inner. rev may be
// nil for a suck-only transform.
func Map[T, U any](inner ItemEnd[T], fwd func(T) (U, error), rev func(U) (T, error)) ItemEnd[U] {
	return mapEnd(inner, "map", false, liftFunc(fwd), liftFunc(rev))
}

// MapContext is Map with context-aware functions. Its workers run
// asynchronously, so fn may block on I/O as long as it honours ctx.
func MapContext[T, U any](inner ItemEnd[T], fwd func(context.Context, T) (U, error), rev func(context.Context, U) (T, error)) ItemEnd[U] {
	return mapEnd(inner, "map", true, fwd, rev)
}

// Do calls action on every value passing through in either direction.
func Do[T any](inner ItemEnd[T], action func(T)) ItemEnd[T] {
	pass := func(_ context.Context, v T) (T, error) {
		action(v)
		return v, nil
	}
	return mapEnd(inner, "do", false, pass, pass)
}

func liftFunc[T, U any](fn func(T) (U, error)) func(context.Context, T) (U, error) {
	if fn == nil {
		return nil
	}
	return func(_ context.Context, v T) (U, error) { return fn(v) }
}

func mapEnd[T, U any](inner ItemEnd[T], name string, async bool, fwd func(context.Context, T) (U, error), rev func(context.Context, U) (T, error)) ItemEnd[U] {
	var forward Bridge[itemBuf[T], itemBuf[U]]
	if fwd != nil {
		forward = func(src itemBuf[T], dst itemBuf[U], c *Context) error {
			return scheduleItems(c, async, "transforming", func(ctx context.Context, p *Progress) error {
				return mapItems(ctx, src, dst, p, fwd)
			})
		}
	}
	var backward Bridge[itemBuf[U], itemBuf[T]]
	if rev != nil {
		backward = func(src itemBuf[U], dst itemBuf[T], c *Context) error {
			return scheduleItems(c, async, "transforming", func(ctx context.Context, p *Progress) error {
				return mapItems(ctx, src, dst, p, rev)
			})
		}
	}
	return Nested[itemBuf[T], itemBuf[U]](inner, name, forward, backward)
}

func scheduleItems(c *Context, async bool, verb string, fn Func) error {
	if async {
		return c.ScheduleAsync(verb, fn)
	}
	return c.ScheduleSync(verb, fn)
}

func mapItems[S, D any](ctx context.Context, src itemBuf[S], dst itemBuf[D], p *Progress, fn func(context.Context, S) (D, error)) error {
	for v, err := range src.Consume(ctx) {
		if err != nil {
			return err
		}
		out, err := fn(ctx, v)
		if err != nil {
			return err
		}
		if err := dst.Add(ctx, out); err != nil {
			return err
		}
		p.AddProcessed(1)
	}
	dst.CompleteAdding()
	return nil
}

// Transform is an item transform operating on whole sequences. fwd maps the
// sequence inner produces when sucking; rev maps the sequence written into
// inner when blowing. Values the function leaves unconsumed are discarded.
func Transform[T, U any](inner ItemEnd[T], fwd func(iter.Seq[T]) iter.Seq[U], rev func(iter.Seq[U]) iter.Seq[T]) ItemEnd[U] {
	var forward Bridge[itemBuf[T], itemBuf[U]]
	if fwd != nil {
		forward = func(src itemBuf[T], dst itemBuf[U], c *Context) error {
			return c.ScheduleSync("transforming", func(ctx context.Context, p *Progress) error {
				return transformItems(ctx, src, dst, p, fwd)
			})
		}
	}
	var backward Bridge[itemBuf[U], itemBuf[T]]
	if rev != nil {
		backward = func(src itemBuf[U], dst itemBuf[T], c *Context) error {
			return c.ScheduleSync("transforming", func(ctx context.Context, p *Progress) error {
				return transformItems(ctx, src, dst, p, rev)
			})
		}
	}
	return Nested[itemBuf[T], itemBuf[U]](inner, "transform", forward, backward)
}

func transformItems[S, D any](ctx context.Context, src itemBuf[S], dst itemBuf[D], p *Progress, fn func(iter.Seq[S]) iter.Seq[D]) error {
	var srcErr error
	in := func(yield func(S) bool) {
		for v, err := range src.Consume(ctx) {
			if err != nil {
				srcErr = err
				return
			}
			if !yield(v) {
				return
			}
		}
	}
	for out := range fn(in) {
		if err := dst.Add(ctx, out); err != nil {
			return err
		}
		p.AddProcessed(1)
	}
	if srcErr != nil {
		return srcErr
	}
	for _, err := range src.Consume(ctx) {
		if err != nil {
			return err
		}
	}
	dst.CompleteAdding()
	return nil
}

// Filter drops values for which keep returns false, in either direction.
func Filter[T any](inner ItemEnd[T], keep func(T) bool) ItemEnd[T] {
	bridge := func(src, dst itemBuf[T], c *Context) error {
		return c.ScheduleSync("filtering", func(ctx context.Context, p *Progress) error {
			for v, err := range src.Consume(ctx) {
				if err != nil {
					return err
				}
				p.AddProcessed(1)
				if !keep(v) {
					continue
				}
				if err := dst.Add(ctx, v); err != nil {
					return err
				}
			}
			dst.CompleteAdding()
			return nil
		})
	}
	return Nested[itemBuf[T], itemBuf[T]](inner, "filter", bridge, bridge)
}

// Batch groups values into slices of up to size values when sucking, and
// flattens slices back into single values when blowing. The last batch may
// be shorter.
func Batch[T any](inner ItemEnd[T], size int) ItemEnd[[]T] {
	if size < 1 {
		size = 1
	}
	forward := func(src itemBuf[T], dst itemBuf[[]T], c *Context) error {
		return c.ScheduleSync("batching", func(ctx context.Context, p *Progress) error {
			batch := make([]T, 0, size)
			for v, err := range src.Consume(ctx) {
				if err != nil {
					return err
				}
				batch = append(batch, v)
				if len(batch) < size {
					continue
				}
				if err := dst.Add(ctx, batch); err != nil {
					return err
				}
				p.AddProcessed(1)
				batch = make([]T, 0, size)
			}
			if len(batch) > 0 {
				if err := dst.Add(ctx, batch); err != nil {
					return err
				}
				p.AddProcessed(1)
			}
			dst.CompleteAdding()
			return nil
		})
	}
	backward := func(src itemBuf[[]T], dst itemBuf[T], c *Context) error {
		return c.ScheduleSync("unbatching", func(ctx context.Context, p *Progress) error {
			for batch, err := range src.Consume(ctx) {
				if err != nil {
					return err
				}
				for _, v := range batch {
					if err := dst.Add(ctx, v); err != nil {
						return err
					}
				}
				p.AddProcessed(1)
			}
			dst.CompleteAdding()
			return nil
		})
	}
	return Nested[itemBuf[T], itemBuf[[]T]](inner, "batch", forward, backward)
}
