package report

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/pipeline"
	"github.com/kbukum/pipekit/server"
	"github.com/kbukum/pipekit/validation"
)

// Summary is the report header without its parts.
type Summary struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	State   pipeline.State `json:"state"`
	Elapsed time.Duration  `json:"elapsed"`
}

func summarize(r pipeline.Report) Summary {
	return Summary{ID: r.ID, Name: r.Name, State: r.State, Elapsed: r.Elapsed}
}

// Register mounts the pipeline endpoints on router:
//
//	GET  /pipelines              summaries of all tracked pipelines
//	GET  /pipelines/:id          summary of one pipeline
//	GET  /pipelines/:id/report   full report
//	POST /pipelines/:id/cancel   cancel a running pipeline
func Register(router gin.IRouter, reg *Registry) {
	h := &handler{reg: reg}
	g := router.Group("/pipelines")
	g.GET("", h.list)
	g.GET("/:id", h.summary)
	g.GET("/:id/report", h.report)
	g.POST("/:id/cancel", h.cancel)
}

type handler struct {
	reg *Registry
}

func (h *handler) list(c *gin.Context) {
	lives := h.reg.List()
	out := make([]Summary, 0, len(lives))
	for _, t := range lives {
		out = append(out, summarize(t.Report()))
	}
	server.RespondOKWithMeta(c, out, &server.Meta{Total: len(out)})
}

func (h *handler) summary(c *gin.Context) {
	t, ok := h.lookup(c)
	if !ok {
		return
	}
	server.RespondOK(c, summarize(t.Report()))
}

func (h *handler) report(c *gin.Context) {
	t, ok := h.lookup(c)
	if !ok {
		return
	}
	server.RespondOK(c, t.Report())
}

func (h *handler) cancel(c *gin.Context) {
	t, ok := h.lookup(c)
	if !ok {
		return
	}
	if t.State().Terminal() {
		server.RespondWithError(c, errors.Conflict("pipeline has already resolved").
			WithDetail("state", t.State().String()))
		return
	}
	t.Cancel()
	server.RespondAccepted(c, summarize(t.Report()))
}

func (h *handler) lookup(c *gin.Context) (Tracked, bool) {
	id := c.Param("id")
	if err := validation.New().RequiredUUID("id", id).Validate(); err != nil {
		server.RespondWithError(c, err)
		return nil, false
	}
	t, ok := h.reg.Get(id)
	if !ok {
		server.RespondWithError(c, errors.NotFound("pipeline", id))
		return nil, false
	}
	return t, true
}
