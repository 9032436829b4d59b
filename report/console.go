package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/pipeline"
)

const defaultBarWidth = 20

// Console writes one block of text per report: a header line followed by
// one line per ledger entry.
type Console struct {
	w        io.Writer
	barWidth int
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithBarWidth sets the number of cells in buffer bars.
func WithBarWidth(n int) ConsoleOption {
	return func(c *Console) {
		if n > 0 {
			c.barWidth = n
		}
	}
}

// NewConsole creates a console renderer writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{w: w, barWidth: defaultBarWidth}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render writes r.
func (c *Console) Render(r pipeline.Report) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s %s\n", r.Name, shortID(r.ID), r.State, r.Elapsed.Round(time.Millisecond))
	for _, p := range r.Parts {
		switch {
		case p.Worker != nil:
			sb.WriteString("  ")
			sb.WriteString(workerLine(*p.Worker))
		case p.Buffer != nil:
			sb.WriteString("  ")
			sb.WriteString(c.bufferLine(*p.Buffer))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(c.w, sb.String())
	return err
}

func workerLine(w pipeline.WorkerReport) string {
	verb := w.Verb
	if verb == "" {
		verb = "-"
	}
	line := fmt.Sprintf("%-12s %-12s %-10s %s", w.Name, verb, w.State, humanize.Comma(w.Processed))
	if w.Total != nil {
		line += " / " + humanize.Comma(*w.Total)
		if pct, ok := percent(w.Processed, *w.Total); ok {
			line += fmt.Sprintf(" (%d%%)", pct)
		}
	}
	return line
}

func (c *Console) bufferLine(b pipeline.BufferReport) string {
	var size string
	if b.Kind == buffer.KindBytes {
		size = humanize.IBytes(uint64(max(b.Occupied, 0))) + " / " + humanize.IBytes(uint64(max(b.Capacity, 0)))
	} else {
		size = humanize.Comma(b.Occupied) + " / " + humanize.Comma(b.Capacity)
	}
	return fmt.Sprintf("[%s] %-5s %-5s %s", bar(b.Occupied, b.Capacity, c.barWidth), b.Kind, b.State, size)
}

// bar draws occupied/capacity as width cells.
func bar(occupied, capacity int64, width int) string {
	filled := 0
	if capacity > 0 {
		filled = int(min(occupied, capacity) * int64(width) / capacity)
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func percent(done, total int64) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	return int(min(done, total) * 100 / total), true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
