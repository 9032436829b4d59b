package report

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/pipekit/pipeline"
	"github.com/kbukum/pipekit/server/endpoint"
)

// Tracked is a pipeline the registry can report on and cancel.
// *pipeline.Live implements it.
type Tracked interface {
	Source
	ID() string
	State() pipeline.State
	Err() error
	Cancel()
}

// Registry holds tracked pipelines by id.
type Registry struct {
	mu    sync.RWMutex
	lives map[string]Tracked
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{lives: make(map[string]Tracked)}
}

// Add tracks t, replacing any pipeline with the same id.
func (r *Registry) Add(t Tracked) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lives[t.ID()] = t
}

// Get returns the pipeline with the given id.
func (r *Registry) Get(id string) (Tracked, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.lives[id]
	return t, ok
}

// Remove stops tracking id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lives, id)
}

// List returns all tracked pipelines ordered by id.
func (r *Registry) List() []Tracked {
	r.mu.RLock()
	out := make([]Tracked, 0, len(r.lives))
	for _, t := range r.lives {
		out = append(out, t)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Tracked) int { return strings.Compare(a.ID(), b.ID()) })
	return out
}

// Check reports every tracked pipeline as a health component. Failed
// pipelines degrade the service; nothing makes it unhealthy.
func (r *Registry) Check(context.Context) []endpoint.ComponentHealth {
	lives := r.List()
	out := make([]endpoint.ComponentHealth, 0, len(lives))
	for _, t := range lives {
		h := endpoint.ComponentHealth{Name: "pipeline:" + t.ID(), Status: endpoint.StatusHealthy, Message: t.State().String()}
		if t.State() == pipeline.StateFailed {
			h.Status = endpoint.StatusDegraded
			if err := t.Err(); err != nil {
				h.Message = err.Error()
			}
		}
		out = append(out, h)
	}
	return out
}
