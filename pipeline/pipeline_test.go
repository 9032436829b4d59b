package pipeline

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/pipekit/buffer"
	apperrors "github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
)

var quiet = WithLogger(logger.Nop())

func TestReadAll_IdentityMapKeepsOrder(t *testing.T) {
	in := make([]int, 500)
	for i := range in {
		in[i] = i
	}
	id := func(n int) (int, error) { return n, nil }

	got, err := ReadAll(context.Background(), Map(Map(FromSlice(in), id, id), id, id),
		quiet, WithSizing(buffer.Sizing{Items: 3}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, in) {
		t.Errorf("order not preserved: got %v", got[:10])
	}
}

func TestCopy_MapScenario(t *testing.T) {
	var out []int
	p := New(Map(FromSlice([]int{1, 2, 3}), func(n int) (int, error) { return n * 10, nil }, nil),
		Collect(&out), quiet)

	live, err := p.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := live.Wait(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out, []int{10, 20, 30}) {
		t.Errorf("got %v, want [10 20 30]", out)
	}
	if live.State() != StateCompleted {
		t.Errorf("state = %v, want completed", live.State())
	}

	r := live.Report()
	if r.ID == "" || r.ID != live.ID() {
		t.Errorf("report id %q, live id %q", r.ID, live.ID())
	}
	workers := r.Workers()
	wantNames := []string{"slice", "map", "collection"}
	if len(workers) != len(wantNames) {
		t.Fatalf("got %d workers, want %d", len(workers), len(wantNames))
	}
	for i, w := range workers {
		if w.Name != wantNames[i] {
			t.Errorf("worker %d = %q, want %q", i, w.Name, wantNames[i])
		}
		if w.State != StateCompleted {
			t.Errorf("worker %s state = %v", w.Name, w.State)
		}
		if w.Processed != 3 {
			t.Errorf("worker %s processed %d, want 3", w.Name, w.Processed)
		}
	}
	if workers[0].Total == nil || *workers[0].Total != 3 {
		t.Error("slice source should report a total of 3")
	}
	if n := len(r.Buffers()); n != 2 {
		t.Errorf("got %d buffers, want 2", n)
	}
}

func TestMap_RoundTrip(t *testing.T) {
	ctx := context.Background()
	in := []int{4, 8, 15, 16, 23, 42}
	f := func(n int) (string, error) { return strconv.Itoa(n), nil }
	g := func(s string) (int, error) { return strconv.Atoi(s) }

	strs, err := ReadAll(ctx, Map(FromSlice(in), f, g), quiet)
	if err != nil {
		t.Fatal(err)
	}

	var back []int
	if err := WriteAll(ctx, Map(Collect(&back), f, g), strs, quiet); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(back, in) {
		t.Errorf("got %v, want %v", back, in)
	}
}

func TestCopy_BlowIntoSourceFailsBeforeStart(t *testing.T) {
	var pulled atomic.Int32
	seq := func(yield func(int) bool) {
		pulled.Add(1)
		yield(1)
	}

	err := Copy(context.Background(), FromSeq(seq, -1), FromSlice([]int{1}), quiet)
	if !apperrors.IsCode(err, apperrors.ErrCodeDirectionNotSupported) {
		t.Fatalf("expected DIRECTION_NOT_SUPPORTED, got %v", err)
	}
	if appErr, _ := apperrors.AsAppError(err); appErr.Message != "blowing into slice is not supported" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if pulled.Load() != 0 {
		t.Error("source ran although wiring failed")
	}
}

func TestCopy_MapWithoutReverseCannotBlow(t *testing.T) {
	var out []int
	sink := Map(Collect(&out), func(n int) (int, error) { return n, nil }, nil)
	err := WriteAll(context.Background(), sink, []int{1}, quiet)
	if !apperrors.IsCode(err, apperrors.ErrCodeDirectionNotSupported) {
		t.Fatalf("expected DIRECTION_NOT_SUPPORTED, got %v", err)
	}
	if appErr, _ := apperrors.AsAppError(err); appErr.Message != "blowing into map is not supported" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestCopy_SinkCannotSuck(t *testing.T) {
	_, err := ReadAll(context.Background(), Blackhole[int](), quiet)
	if !apperrors.IsCode(err, apperrors.ErrCodeDirectionNotSupported) {
		t.Fatalf("expected DIRECTION_NOT_SUPPORTED, got %v", err)
	}
}

func TestLive_FaultFailsPipeline(t *testing.T) {
	boom := errors.New("boom")
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	failing := Map(FromSlice(in), func(n int) (int, error) {
		if n == 5 {
			return 0, boom
		}
		return n, nil
	}, nil)

	var out []int
	live, err := New(failing, Collect(&out), quiet).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	err = live.Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !apperrors.IsCode(err, apperrors.ErrCodeStageFailed) {
		t.Errorf("expected STAGE_FAILED, got %v", err)
	}
	if live.State() != StateFailed {
		t.Errorf("state = %v, want failed", live.State())
	}

	failed := 0
	for _, w := range live.Report().Workers() {
		if !w.State.Terminal() {
			t.Errorf("worker %s not resolved: %v", w.Name, w.State)
		}
		if w.State == StateFailed {
			failed++
			if w.Name != "map" {
				t.Errorf("unexpected failed worker %s", w.Name)
			}
		}
	}
	if failed != 1 {
		t.Errorf("got %d failed workers, want 1", failed)
	}
}

func TestLive_PanicIsFault(t *testing.T) {
	end := Map(FromSlice([]int{1}), func(int) (int, error) { panic("kaboom") }, nil)
	_, err := ReadAll(context.Background(), end, quiet)
	if !apperrors.IsCode(err, apperrors.ErrCodePanic) {
		t.Fatalf("expected PANIC, got %v", err)
	}
}

func TestLive_Cancel(t *testing.T) {
	ch := make(chan int)
	var out []int
	live, err := New(FromChannel(ch), Collect(&out), quiet).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	ch <- 1
	live.Cancel()

	select {
	case <-live.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not resolve after cancel")
	}
	if err := live.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if live.State() != StateCancelled {
		t.Errorf("state = %v, want cancelled", live.State())
	}
	for _, w := range live.Report().Workers() {
		if w.State == StateFailed {
			t.Errorf("worker %s failed on cancellation", w.Name)
		}
	}
}

func TestLive_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	sink := FromAsyncAction("wait", func(ctx context.Context, _ int) error {
		<-ctx.Done()
		close(release)
		return ctx.Err()
	})
	live, err := New(FromSlice([]int{1}), sink, quiet).Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	<-release
	if err := live.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLive_ReportBeforeCompletion(t *testing.T) {
	p := New(FromSlice([]int{1, 2, 3}), Blackhole[int](), quiet)
	w, err := p.Build()
	if err != nil {
		t.Fatal(err)
	}
	for _, part := range Snapshot(w.Parts()) {
		if part.Worker != nil && part.Worker.State != StateReady {
			t.Errorf("worker %s state %v before start", part.Worker.Name, part.Worker.State)
		}
	}

	gate := make(chan struct{})
	blocked := FromAction("gate", func(int) error {
		<-gate
		return nil
	})
	live, err := New(FromSlice([]int{1, 2, 3}), blocked, quiet).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if live.State() != StateRunning {
		t.Errorf("state = %v, want running", live.State())
	}
	for _, wr := range live.Report().Workers() {
		if wr.Name == "gate" && wr.State.Terminal() {
			t.Errorf("gate resolved before release: %v", wr.State)
		}
	}
	close(gate)
	if err := live.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestLive_PartsMergeOrder(t *testing.T) {
	id := func(n int) (int, error) { return n, nil }
	var out []int
	p := New(Map(FromSlice([]int{1}), id, id), Filter(Map(Collect(&out), id, id), func(int) bool { return true }), quiet)
	w, err := p.Build()
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, part := range w.Parts() {
		if wp, ok := part.(*WorkerPart); ok {
			names = append(names, wp.Name())
		}
	}
	want := []string{"slice", "map", "filter", "map", "collection"}
	if !slices.Equal(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
	if len(w.Parts()) != 9 {
		t.Errorf("got %d parts, want 9", len(w.Parts()))
	}
}

func TestPipeline_Reusable(t *testing.T) {
	var out []int
	p := New(FromSlice([]int{1, 2}), Collect(&out), quiet)
	for i := 0; i < 2; i++ {
		if err := p.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if !slices.Equal(out, []int{1, 2, 1, 2}) {
		t.Errorf("got %v", out)
	}
}

func TestPipeline_SerialExecution(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	double := func(n int) (int, error) { return n * 2, nil }
	got, err := ReadAll(context.Background(), Map(Map(FromSlice(in), double, nil), double, nil),
		quiet, WithSerialExecution(), WithSizing(buffer.Sizing{Items: 2}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{4, 8, 12, 16, 20, 24, 28, 32}) {
		t.Errorf("got %v", got)
	}
}

type rejectingExecutor struct{ joined atomic.Bool }

func (*rejectingExecutor) Execute(func(), func(error)) error {
	return apperrors.New(apperrors.ErrCodeSchedulerClosed, "closed", 503)
}

func (e *rejectingExecutor) Join() { e.joined.Store(true) }

func TestPipeline_ExecutorRejects(t *testing.T) {
	exec := &rejectingExecutor{}
	_, err := ReadAll(context.Background(), FromSlice([]int{1}), quiet,
		WithExecutorFactory(func(context.Context) Executor { return exec }))
	if !apperrors.IsCode(err, apperrors.ErrCodeSchedulerClosed) {
		t.Fatalf("expected SCHEDULER_CLOSED, got %v", err)
	}
	if !exec.joined.Load() {
		t.Error("executor was not joined")
	}
}
