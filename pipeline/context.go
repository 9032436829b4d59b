package pipeline

import (
	"slices"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/errors"
)

// Context accumulates the ledger of one wiring direction: the buffers and
// workers created while a pipe end graph is run in a given mode, in the
// order they were created.
type Context struct {
	mode   Mode
	sizing buffer.Sizing
	parts  []Part
}

// NewContext creates an empty ledger for mode.
func NewContext(mode Mode, sizing buffer.Sizing) *Context {
	return &Context{mode: mode, sizing: sizing.OrDefault()}
}

// Mode returns the wiring direction.
func (c *Context) Mode() Mode { return c.mode }

// Sizing returns the capacities used for buffers created in this context.
func (c *Context) Sizing() buffer.Sizing { return c.sizing }

// AddBuffer appends a buffer checkpoint.
func (c *Context) AddBuffer(b buffer.Buffer) {
	c.parts = append(c.parts, &BufferPart{Buffer: b})
}

// AddWorker appends a worker checkpoint. Work scheduled next attaches to it.
func (c *Context) AddWorker(name string) *WorkerPart {
	w := &WorkerPart{name: name, task: newTask()}
	c.parts = append(c.parts, w)
	return w
}

// Parts returns a copy of the ledger.
func (c *Context) Parts() []Part {
	return slices.Clone(c.parts)
}

// ScheduleSync attaches a blocking unit of work to the last worker
// checkpoint. It runs on an executor chosen by the pipeline.
func (c *Context) ScheduleSync(verb string, fn Func) error {
	return c.schedule(unitSync, verb, fn)
}

// ScheduleAsync attaches a context-aware unit of work to the last worker
// checkpoint. It runs on its own goroutine.
func (c *Context) ScheduleAsync(verb string, fn Func) error {
	return c.schedule(unitAsync, verb, fn)
}

func (c *Context) schedule(kind unitKind, verb string, fn Func) error {
	if len(c.parts) == 0 {
		return errors.NoActiveWorker(verb)
	}
	w, ok := c.parts[len(c.parts)-1].(*WorkerPart)
	if !ok {
		return errors.NoActiveWorker(verb)
	}
	if w.unit != nil {
		return errors.AlreadyScheduled(w.name)
	}
	w.verb = verb
	if c.mode == ModeProbe {
		return nil
	}
	w.unit = &unit{kind: kind, fn: fn}
	return nil
}
