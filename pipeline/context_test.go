package pipeline

import (
	"context"
	"testing"

	"github.com/kbukum/pipekit/buffer"
	apperrors "github.com/kbukum/pipekit/errors"
)

func noop(context.Context, *Progress) error { return nil }

func TestContext_ScheduleWithoutWorker(t *testing.T) {
	c := NewContext(ModeSuck, buffer.Sizing{})
	err := c.ScheduleSync("reading", noop)
	if !apperrors.IsCode(err, apperrors.ErrCodeNoActiveWorker) {
		t.Fatalf("expected NO_ACTIVE_WORKER, got %v", err)
	}

	c.AddWorker("w")
	c.AddBuffer(buffer.NewItems[int](1))
	err = c.ScheduleAsync("reading", noop)
	if !apperrors.IsCode(err, apperrors.ErrCodeNoActiveWorker) {
		t.Fatalf("expected NO_ACTIVE_WORKER after a buffer, got %v", err)
	}
}

func TestContext_ScheduleTwice(t *testing.T) {
	c := NewContext(ModeBlow, buffer.Sizing{})
	c.AddWorker("w")
	if err := c.ScheduleSync("writing", noop); err != nil {
		t.Fatal(err)
	}
	err := c.ScheduleSync("writing", noop)
	if !apperrors.IsCode(err, apperrors.ErrCodeAlreadyScheduled) {
		t.Fatalf("expected ALREADY_SCHEDULED, got %v", err)
	}
}

func TestContext_ProbeSchedulesNothing(t *testing.T) {
	c := NewContext(ModeProbe, buffer.Sizing{})
	w := c.AddWorker("w")
	if err := c.ScheduleSync("reading", noop); err != nil {
		t.Fatal(err)
	}
	if w.Scheduled() {
		t.Error("probe mode must not attach work")
	}
	if w.Verb() != "reading" {
		t.Errorf("verb = %q, want reading", w.Verb())
	}
	if w.State() != StateReady {
		t.Errorf("state = %v, want ready", w.State())
	}
}

func TestContext_PartsIsCopy(t *testing.T) {
	c := NewContext(ModeSuck, buffer.Sizing{})
	c.AddWorker("a")
	parts := c.Parts()
	c.AddWorker("b")
	if len(parts) != 1 {
		t.Errorf("snapshot changed: %d parts", len(parts))
	}
}

func TestProbe_DecoratorLedger(t *testing.T) {
	id := func(n int) (int, error) { return n, nil }
	end := Map(Map(Map(FromSlice([]int{1}), id, id), id, id), id, id)

	parts, err := Probe(end, buffer.Sizing{Items: 4})
	if err != nil {
		t.Fatal(err)
	}

	var buffers, workers int
	var names []string
	for _, p := range parts {
		switch v := p.(type) {
		case *BufferPart:
			buffers++
			if v.Buffer.Capacity() != 4 {
				t.Errorf("buffer capacity %d, want 4", v.Buffer.Capacity())
			}
		case *WorkerPart:
			workers++
			names = append(names, v.Name())
		}
	}
	if buffers != 3 || workers != 4 {
		t.Fatalf("got %d buffers and %d workers, want 3 and 4", buffers, workers)
	}
	want := []string{"slice", "map", "map", "map"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("worker %d = %q, want %q", i, names[i], want[i])
		}
	}
	if _, ok := parts[0].(*WorkerPart); !ok {
		t.Error("ledger must start with the innermost worker")
	}
}

func TestProbe_IsPure(t *testing.T) {
	end := Filter(FromSlice([]int{1, 2}), func(int) bool { return true })
	a, err := Probe(end, buffer.Sizing{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Probe(end, buffer.Sizing{})
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("probe results differ: %d vs %d parts", len(a), len(b))
	}
	for i := range a {
		wa, okA := a[i].(*WorkerPart)
		wb, okB := b[i].(*WorkerPart)
		if okA != okB || (okA && (wa.Name() != wb.Name() || wa.Verb() != wb.Verb())) {
			t.Errorf("part %d differs", i)
		}
	}
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateCancelled, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	for _, s := range []State{StateReady, StateRunning} {
		if s.Terminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
}
