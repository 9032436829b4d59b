package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pipekit/errors"
)

// Envelope is the body of every successful API response.
type Envelope struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta describes a listing.
type Meta struct {
	Total int `json:"total"`
}

// RespondOK answers 200 with data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

// RespondOKWithMeta answers 200 with a listing and its metadata.
func RespondOKWithMeta(c *gin.Context, data any, meta *Meta) {
	c.JSON(http.StatusOK, Envelope{Data: data, Meta: meta})
}

// RespondAccepted answers 202 for requests whose effect completes later,
// such as cancelling a running pipeline.
func RespondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, Envelope{Data: data})
}

// RespondWithError answers with the status and error body of err. Errors
// that carry no code are reported as INTERNAL.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, appErr.ToResponse())
}
