package report

import "github.com/kbukum/pipekit/pipeline"

// Renderer outputs a report.
type Renderer interface {
	Render(r pipeline.Report) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(r pipeline.Report) error

// Render calls f(r).
func (f RendererFunc) Render(r pipeline.Report) error { return f(r) }
