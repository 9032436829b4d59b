package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/pipeline"
	"github.com/kbukum/pipekit/server/endpoint"
)

const testID = "1f0e4a4c-7f3a-4c56-9b1d-3c2a9e8d7b6a"

type fakeLive struct {
	mu        sync.Mutex
	id        string
	state     pipeline.State
	err       error
	done      chan struct{}
	cancelled bool
	reports   int
}

func newFake(id string, state pipeline.State) *fakeLive {
	return &fakeLive{id: id, state: state, done: make(chan struct{})}
}

func (f *fakeLive) ID() string { return f.id }

func (f *fakeLive) State() pipeline.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeLive) Err() error { return f.err }

func (f *fakeLive) Done() <-chan struct{} { return f.done }

func (f *fakeLive) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	f.state = pipeline.StateCancelled
}

func (f *fakeLive) Report() pipeline.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	total := int64(10)
	return pipeline.Report{
		ID: f.id, Name: "copy", State: f.state, Elapsed: 1500 * time.Millisecond,
		Parts: []pipeline.ReportPart{
			{Worker: &pipeline.WorkerReport{Name: "file", Verb: "reading", Total: &total, Processed: 5, State: f.state}},
			{Buffer: &pipeline.BufferReport{Kind: buffer.KindBytes, State: buffer.Mixed, Occupied: 512, Capacity: 1024}},
			{Worker: &pipeline.WorkerReport{Name: "writer", Verb: "writing", Processed: 1234, State: f.state}},
		},
	}
}

func TestConsole_Render(t *testing.T) {
	var out bytes.Buffer
	if err := NewConsole(&out, WithBarWidth(4)).Render(newFake(testID, pipeline.StateRunning).Report()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if lines[0] != "copy 1f0e4a4c running 1.5s" {
		t.Errorf("header = %q", lines[0])
	}
	for i, want := range []string{"5 / 10 (50%)", "[##..] bytes mixed 512 B / 1.0 KiB", "1,234"} {
		if !strings.Contains(lines[i+1], want) {
			t.Errorf("line %d = %q, want it to contain %q", i+1, lines[i+1], want)
		}
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		occupied, capacity int64
		want               string
	}{
		{0, 8, "...."},
		{4, 8, "##.."},
		{8, 8, "####"},
		{9, 8, "####"},
		{1, 0, "...."},
	}
	for _, tc := range tests {
		if got := bar(tc.occupied, tc.capacity, 4); got != tc.want {
			t.Errorf("bar(%d, %d) = %q, want %q", tc.occupied, tc.capacity, got, tc.want)
		}
	}
}

func TestWatch_TicksAndFinalRender(t *testing.T) {
	mock := clock.NewMock()
	src := newFake(testID, pipeline.StateRunning)
	renders := make(chan pipeline.Report, 8)
	r := RendererFunc(func(rep pipeline.Report) error {
		renders <- rep
		return nil
	})

	errc := make(chan error, 1)
	go func() { errc <- Watch(context.Background(), src, time.Second, r, WithClock(mock)) }()

	<-renders
	mock.Add(time.Second)
	select {
	case <-renders:
	case <-time.After(5 * time.Second):
		t.Fatal("no render after a tick")
	}

	close(src.done)
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	select {
	case <-renders:
	default:
		t.Error("missing final render")
	}
}

func TestWatch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := newFake(testID, pipeline.StateRunning)
	err := Watch(ctx, src, time.Second, RendererFunc(func(pipeline.Report) error { return nil }), WithClock(clock.NewMock()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWatch_RenderError(t *testing.T) {
	broken := errors.New("broken pipe")
	src := newFake(testID, pipeline.StateRunning)
	err := Watch(context.Background(), src, time.Second, RendererFunc(func(pipeline.Report) error { return broken }), WithClock(clock.NewMock()))
	if !errors.Is(err, broken) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestWatch_RealPipeline(t *testing.T) {
	live, err := pipeline.New(pipeline.FromSlice([]int{1, 2, 3}), pipeline.Blackhole[int](),
		pipeline.WithLogger(logger.Nop())).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var last pipeline.Report
	if err := Watch(context.Background(), live, time.Hour, RendererFunc(func(r pipeline.Report) error {
		last = r
		return nil
	})); err != nil {
		t.Fatal(err)
	}
	if last.State != pipeline.StateCompleted {
		t.Errorf("final render state = %v", last.State)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	ok := newFake("b", pipeline.StateCompleted)
	bad := newFake("a", pipeline.StateFailed)
	bad.err = errors.New("disk full")
	reg.Add(ok)
	reg.Add(bad)

	if got := reg.List(); len(got) != 2 || got[0].ID() != "a" {
		t.Fatalf("unexpected list order")
	}
	health := reg.Check(context.Background())
	if endpoint.Overall(health) != endpoint.StatusDegraded {
		t.Errorf("overall = %v, want degraded", endpoint.Overall(health))
	}
	if health[0].Message != "disk full" {
		t.Errorf("message = %q", health[0].Message)
	}

	reg.Remove("a")
	if _, found := reg.Get("a"); found {
		t.Error("pipeline still tracked after Remove")
	}
	if endpoint.Overall(reg.Check(context.Background())) != endpoint.StatusHealthy {
		t.Error("expected healthy after removing the failed pipeline")
	}
}

func newRouter(reg *Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, reg)
	return r
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHandler_Routes(t *testing.T) {
	reg := NewRegistry()
	live := newFake(testID, pipeline.StateRunning)
	reg.Add(live)
	router := newRouter(reg)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"list", http.MethodGet, "/pipelines", http.StatusOK},
		{"summary", http.MethodGet, "/pipelines/" + testID, http.StatusOK},
		{"report", http.MethodGet, "/pipelines/" + testID + "/report", http.StatusOK},
		{"bad id", http.MethodGet, "/pipelines/nope", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/pipelines/6b0e1c1e-8d5e-4c6b-8a33-0f6f2f0f9c11", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if w := do(router, tc.method, tc.path); w.Code != tc.status {
				t.Errorf("status = %d, want %d: %s", w.Code, tc.status, w.Body.String())
			}
		})
	}
}

func TestHandler_ReportBody(t *testing.T) {
	reg := NewRegistry()
	reg.Add(newFake(testID, pipeline.StateRunning))
	w := do(newRouter(reg), http.MethodGet, "/pipelines/"+testID+"/report")

	var body struct {
		Data struct {
			ID    string `json:"id"`
			State string `json:"state"`
			Parts []struct {
				Buffer *struct {
					Kind  string `json:"kind"`
					State string `json:"state"`
				} `json:"buffer"`
			} `json:"parts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.ID != testID || body.Data.State != "running" {
		t.Errorf("unexpected report %+v", body.Data)
	}
	if len(body.Data.Parts) != 3 || body.Data.Parts[1].Buffer == nil || body.Data.Parts[1].Buffer.Kind != "bytes" {
		t.Errorf("unexpected parts %+v", body.Data.Parts)
	}
}

func TestHandler_Cancel(t *testing.T) {
	reg := NewRegistry()
	live := newFake(testID, pipeline.StateRunning)
	reg.Add(live)
	router := newRouter(reg)

	if w := do(router, http.MethodPost, "/pipelines/"+testID+"/cancel"); w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !live.cancelled {
		t.Error("pipeline was not cancelled")
	}
	if w := do(router, http.MethodPost, "/pipelines/"+testID+"/cancel"); w.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", w.Code)
	}
}
