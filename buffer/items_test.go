package buffer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		occupied, capacity int64
		want               FillState
	}{
		{0, 100, Empty},
		{24, 100, Empty},
		{25, 100, Mixed},
		{50, 100, Mixed},
		{51, 100, Full},
		{100, 100, Full},
		{0, 1, Empty},
		{1, 1, Full},
		{1, 4, Mixed},
	}
	for _, tc := range tests {
		if got := Classify(tc.occupied, tc.capacity); got != tc.want {
			t.Errorf("Classify(%d, %d) = %v, want %v", tc.occupied, tc.capacity, got, tc.want)
		}
	}
}

func TestMake(t *testing.T) {
	items := Make[*Items[int]](Sizing{Items: 7})
	if items.Capacity() != 7 {
		t.Errorf("got capacity %d, want 7", items.Capacity())
	}
	bytes := Make[*Bytes](Sizing{})
	if bytes.Capacity() != DefaultSizing.Bytes {
		t.Errorf("got capacity %d, want %d", bytes.Capacity(), DefaultSizing.Bytes)
	}
	if items.Kind() != KindItems || bytes.Kind() != KindBytes {
		t.Error("unexpected kinds")
	}
}

func TestItems_OrderPreserved(t *testing.T) {
	ctx := context.Background()
	b := NewItems[int](3)

	go func() {
		defer b.CompleteAdding()
		for i := 0; i < 100; i++ {
			if err := b.Add(ctx, i); err != nil {
				t.Errorf("add %d: %v", i, err)
				return
			}
		}
	}()

	want := 0
	for v, err := range b.Consume(ctx) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != want {
			t.Fatalf("got %d, want %d", v, want)
		}
		want++
	}
	if want != 100 {
		t.Errorf("consumed %d items, want 100", want)
	}
}

func TestItems_CapacityOneBlocksSecondAdd(t *testing.T) {
	ctx := context.Background()
	b := NewItems[string](1)
	if err := b.Add(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if b.Fill() != Full {
		t.Errorf("got fill %v, want full", b.Fill())
	}

	added := make(chan error, 1)
	go func() { added <- b.Add(ctx, "second") }()

	select {
	case err := <-added:
		t.Fatalf("second add returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	v, ok, err := b.Take(ctx)
	if err != nil || !ok || v != "first" {
		t.Fatalf("got %q %v %v", v, ok, err)
	}

	select {
	case err := <-added:
		if err != nil {
			t.Fatalf("second add: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second add did not proceed after a take")
	}
}

func TestItems_AddAfterComplete(t *testing.T) {
	b := NewItems[int](2)
	b.CompleteAdding()
	b.CompleteAdding()
	if err := b.Add(context.Background(), 1); !errors.Is(err, ErrCompleted) {
		t.Errorf("got %v, want ErrCompleted", err)
	}
	if _, err := b.TryAdd(1); !errors.Is(err, ErrCompleted) {
		t.Errorf("got %v, want ErrCompleted", err)
	}
	if !b.IsCompleted() {
		t.Error("expected completed")
	}
}

func TestItems_CompleteWakesBlockedProducer(t *testing.T) {
	b := NewItems[int](1)
	ctx := context.Background()
	_ = b.Add(ctx, 1)

	done := make(chan error, 1)
	go func() { done <- b.Add(ctx, 2) }()
	time.Sleep(10 * time.Millisecond)
	b.CompleteAdding()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCompleted) {
			t.Errorf("got %v, want ErrCompleted", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked add was not woken")
	}
}

func TestItems_TakeDrainsThenEnds(t *testing.T) {
	ctx := context.Background()
	b := NewItems[int](4)
	_ = b.Add(ctx, 1)
	_ = b.Add(ctx, 2)
	b.CompleteAdding()

	var got []int
	for v, err := range b.Consume(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}
	if _, ok, err := b.Take(ctx); ok || err != nil {
		t.Errorf("expected permanent end, got ok=%v err=%v", ok, err)
	}
}

func TestItems_TryAdd(t *testing.T) {
	b := NewItems[int](1)
	ok, err := b.TryAdd(1)
	if !ok || err != nil {
		t.Fatalf("first TryAdd: %v %v", ok, err)
	}
	ok, err = b.TryAdd(2)
	if ok || err != nil {
		t.Fatalf("second TryAdd should report full, got %v %v", ok, err)
	}
}

func TestItems_AbortWakesEveryone(t *testing.T) {
	ctx := context.Background()
	full := NewItems[int](1)
	_ = full.Add(ctx, 1)
	empty := NewItems[int](1)

	reason := errors.New("stop")
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); errs <- full.Add(ctx, 2) }()
	go func() {
		defer wg.Done()
		_, _, err := empty.Take(ctx)
		errs <- err
	}()

	time.Sleep(10 * time.Millisecond)
	full.Abort(reason)
	empty.Abort(reason)
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, reason) {
			t.Errorf("got %v, want abort reason", err)
		}
	}
}

func TestItems_ConsumeYieldsErrorOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewItems[int](1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	var gotErr error
	for _, err := range b.Consume(ctx) {
		gotErr = err
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", gotErr)
	}
}

func TestItems_AbortNilUsesErrAborted(t *testing.T) {
	b := NewItems[int](1)
	b.Abort(nil)
	if _, _, err := b.Take(context.Background()); !errors.Is(err, ErrAborted) {
		t.Errorf("got %v, want ErrAborted", err)
	}
}
