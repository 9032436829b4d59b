package serial

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
)

func quiet() Option { return WithLogger(logger.Nop()) }

func TestScheduler_RunsInOrder(t *testing.T) {
	s := New(context.Background(), quiet())

	var mu sync.Mutex
	var got []int
	var active, overlap atomic.Int32
	for i := 0; i < 50; i++ {
		err := s.Execute(func() {
			if active.Add(1) > 1 {
				overlap.Add(1)
			}
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			active.Add(-1)
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
	}
	s.Join()

	if len(got) != 50 {
		t.Fatalf("ran %d units, want 50", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("unit %d ran at position %d", v, i)
		}
	}
	if overlap.Load() != 0 {
		t.Error("units overlapped")
	}
}

func TestScheduler_ExecuteAfterJoin(t *testing.T) {
	s := New(context.Background(), quiet())
	s.Join()
	s.Join()

	err := s.Execute(func() {}, nil)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestScheduler_PanicIsReported(t *testing.T) {
	var reported []error
	s := New(context.Background(), WithErrorHandler(func(err error) { reported = append(reported, err) }))

	ran := false
	_ = s.Execute(func() { panic("boom") }, nil)
	_ = s.Execute(func() { ran = true }, nil)
	s.Join()

	if !ran {
		t.Error("loop stopped after a panic")
	}
	if len(reported) != 1 || !apperrors.IsCode(reported[0], apperrors.ErrCodePanic) {
		t.Errorf("unexpected reports %v", reported)
	}
}

func TestScheduler_CancellationPanicStops(t *testing.T) {
	var reported atomic.Int32
	s := New(context.Background(), WithErrorHandler(func(error) { reported.Add(1) }))

	gate := make(chan struct{})
	_ = s.Execute(func() {
		<-gate
		panic(context.Canceled)
	}, nil)

	var skipped error
	skippedCh := make(chan struct{})
	_ = s.Execute(func() { t.Error("unit ran after cancellation panic") }, func(err error) {
		skipped = err
		close(skippedCh)
	})
	close(gate)

	select {
	case <-skippedCh:
	case <-time.After(5 * time.Second):
		t.Fatal("pending unit was never skipped")
	}
	s.Join()

	if !errors.Is(skipped, context.Canceled) {
		t.Errorf("skip reason %v, want context.Canceled", skipped)
	}
	if reported.Load() != 0 {
		t.Error("cancellation panic must not be reported")
	}
}

func TestScheduler_ContextCancelSkipsPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, quiet())

	gate := make(chan struct{})
	_ = s.Execute(func() { <-gate }, nil)

	var skips []error
	var mu sync.Mutex
	for i := 0; i < 3; i++ {
		_ = s.Execute(func() {}, func(err error) {
			mu.Lock()
			skips = append(skips, err)
			mu.Unlock()
		})
	}
	cancel()
	close(gate)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if err := s.Execute(func() {}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled after stop, got %v", err)
	}
	s.Join()

	mu.Lock()
	defer mu.Unlock()
	if len(skips) != 3 {
		t.Fatalf("got %d skips, want 3", len(skips))
	}
	if !slices.ContainsFunc(skips, func(err error) bool { return errors.Is(err, context.Canceled) }) {
		t.Errorf("unexpected skip reasons %v", skips)
	}
}

func TestScheduler_RefusesInline(t *testing.T) {
	var reported error
	s := New(context.Background(), WithErrorHandler(func(err error) { reported = err }))
	defer s.Join()

	if s.ExecuteInline(func() { t.Error("inlined") }) {
		t.Error("ExecuteInline returned true")
	}
	if !apperrors.IsCode(reported, apperrors.ErrCodeInlineRefused) {
		t.Errorf("expected INLINE_REFUSED report, got %v", reported)
	}
}

func TestScheduler_ExecuteBlocksWhileFull(t *testing.T) {
	s := New(context.Background(), quiet(), WithQueueSize(1))

	started := make(chan struct{})
	gate := make(chan struct{})
	var mu sync.Mutex
	var order []int
	record := func(i int) func() {
		return func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}
	}

	if err := s.Execute(func() {
		close(started)
		<-gate
		record(1)()
	}, nil); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := s.Execute(record(2), nil); err != nil {
		t.Fatal(err)
	}

	queued := make(chan error, 1)
	go func() { queued <- s.Execute(record(3), nil) }()
	select {
	case err := <-queued:
		t.Fatalf("Execute returned %v while the queue was full", err)
	case <-time.After(20 * time.Millisecond):
	}
	if s.Len() != 1 {
		t.Errorf("queue length %d, want 1", s.Len())
	}

	close(gate)
	select {
	case err := <-queued:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Execute stayed blocked after the queue drained")
	}
	s.Join()

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(order, []int{1, 2, 3}) {
		t.Errorf("ran in order %v", order)
	}
}

func TestScheduler_BlockedExecuteHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, quiet(), WithQueueSize(1))

	started := make(chan struct{})
	gate := make(chan struct{})
	_ = s.Execute(func() {
		close(started)
		<-gate
	}, nil)
	<-started
	_ = s.Execute(func() {}, nil)

	queued := make(chan error, 1)
	go func() { queued <- s.Execute(func() { t.Error("ran after cancel") }, nil) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-queued:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Execute stayed blocked after cancel")
	}
	close(gate)
	s.Join()
}
