package buffer

import (
	"context"
	"iter"
	"sync"
)

// Items is a bounded multi-producer, multi-consumer queue of values. Adding
// blocks while the queue is full, taking blocks while it is empty and not yet
// completed. Items come out in the order they were added.
type Items[T any] struct {
	mu        sync.Mutex
	ring      []T
	head      int
	count     int
	completed bool
	err       error
	changed   signal
}

// NewItems creates an item buffer holding at most capacity values.
func NewItems[T any](capacity int) *Items[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Items[T]{
		ring:    make([]T, capacity),
		changed: newSignal(),
	}
}

func (*Items[T]) fresh(s Sizing) Buffer { return NewItems[T](s.Items) }

// Kind implements Buffer.
func (*Items[T]) Kind() Kind { return KindItems }

// Add appends v, blocking while the buffer is full. It fails with
// ErrCompleted once adding has been completed, with the abort reason after
// Abort, and with the context error when ctx ends first.
func (b *Items[T]) Add(ctx context.Context, v T) error {
	for {
		b.mu.Lock()
		if b.err != nil {
			err := b.err
			b.mu.Unlock()
			return err
		}
		if b.completed {
			b.mu.Unlock()
			return ErrCompleted
		}
		if b.count < len(b.ring) {
			b.push(v)
			b.mu.Unlock()
			return nil
		}
		wait := b.changed.wait()
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TryAdd appends v if there is room and reports whether it did.
func (b *Items[T]) TryAdd(v T) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return false, b.err
	}
	if b.completed {
		return false, ErrCompleted
	}
	if b.count == len(b.ring) {
		return false, nil
	}
	b.push(v)
	return true, nil
}

// CompleteAdding marks the end of the stream. Consumers drain what is left and
// then observe the end. Calling it more than once has no further effect.
func (b *Items[T]) CompleteAdding() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.completed {
		return
	}
	b.completed = true
	b.changed.broadcast()
}

// IsCompleted reports whether CompleteAdding was called.
func (b *Items[T]) IsCompleted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}

// Take removes the oldest value, blocking while the buffer is empty. ok is
// false once the buffer is empty and complete.
func (b *Items[T]) Take(ctx context.Context) (v T, ok bool, err error) {
	for {
		b.mu.Lock()
		if b.err != nil {
			err = b.err
			b.mu.Unlock()
			return v, false, err
		}
		if b.count > 0 {
			v = b.pop()
			b.mu.Unlock()
			return v, true, nil
		}
		if b.completed {
			b.mu.Unlock()
			return v, false, nil
		}
		wait := b.changed.wait()
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return v, false, ctx.Err()
		}
	}
}

// Consume returns the consuming sequence of the buffer. Each iteration takes
// one value; the sequence ends when the buffer is empty and complete. If the
// buffer is aborted or ctx ends, the sequence yields a single non-nil error
// and stops.
func (b *Items[T]) Consume(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, ok, err := b.Take(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Abort implements Buffer.
func (b *Items[T]) Abort(err error) {
	if err == nil {
		err = ErrAborted
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return
	}
	b.err = err
	b.changed.broadcast()
}

// Occupied implements Buffer.
func (b *Items[T]) Occupied() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(b.count)
}

// Capacity implements Buffer.
func (b *Items[T]) Capacity() int64 { return int64(len(b.ring)) }

// Fill implements Buffer.
func (b *Items[T]) Fill() FillState { return Classify(b.Occupied(), b.Capacity()) }

func (b *Items[T]) push(v T) {
	b.ring[(b.head+b.count)%len(b.ring)] = v
	b.count++
	b.changed.broadcast()
}

func (b *Items[T]) pop() T {
	var zero T
	v := b.ring[b.head]
	b.ring[b.head] = zero
	b.head = (b.head + 1) % len(b.ring)
	b.count--
	b.changed.broadcast()
	return v
}
