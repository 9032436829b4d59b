package pipeline

import (
	"time"

	"github.com/kbukum/pipekit/buffer"
)

// Report is a point-in-time snapshot of a pipeline.
type Report struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	State   State         `json:"state"`
	Elapsed time.Duration `json:"elapsed"`
	Parts   []ReportPart  `json:"parts"`
}

// ReportPart describes one ledger entry. Exactly one of Buffer and Worker
// is set.
type ReportPart struct {
	Buffer *BufferReport `json:"buffer,omitempty"`
	Worker *WorkerReport `json:"worker,omitempty"`
}

// BufferReport is the fill level of a buffer.
type BufferReport struct {
	Kind     buffer.Kind      `json:"kind"`
	State    buffer.FillState `json:"state"`
	Occupied int64            `json:"occupied"`
	Capacity int64            `json:"capacity"`
}

// WorkerReport is the progress of a worker.
type WorkerReport struct {
	Name      string `json:"name"`
	Verb      string `json:"verb,omitempty"`
	Total     *int64 `json:"total,omitempty"`
	Processed int64  `json:"processed"`
	State     State  `json:"state"`
}

// Workers returns the worker entries of the report in ledger order.
func (r Report) Workers() []WorkerReport {
	var out []WorkerReport
	for _, p := range r.Parts {
		if p.Worker != nil {
			out = append(out, *p.Worker)
		}
	}
	return out
}

// Buffers returns the buffer entries of the report in ledger order.
func (r Report) Buffers() []BufferReport {
	var out []BufferReport
	for _, p := range r.Parts {
		if p.Buffer != nil {
			out = append(out, *p.Buffer)
		}
	}
	return out
}

// Snapshot describes parts as they are at the moment of the call.
func Snapshot(parts []Part) []ReportPart {
	out := make([]ReportPart, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case *BufferPart:
			occupied := v.Buffer.Occupied()
			capacity := v.Buffer.Capacity()
			out = append(out, ReportPart{Buffer: &BufferReport{
				Kind:     v.Buffer.Kind(),
				State:    buffer.Classify(occupied, capacity),
				Occupied: occupied,
				Capacity: capacity,
			}})
		case *WorkerPart:
			wr := &WorkerReport{
				Name:      v.name,
				Verb:      v.verb,
				Processed: v.progress.Processed(),
				State:     v.State(),
			}
			if total, ok := v.progress.Total(); ok {
				wr.Total = &total
			}
			out = append(out, ReportPart{Worker: wr})
		}
	}
	return out
}
