package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/bytedance/sonic"

	apperrors "github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
)

// Recovery returns middleware that turns a handler panic into a logged
// PANIC error and a 500 response carrying the standard error body.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				appErr := apperrors.Panicked(v)
				log.Error("handler panicked", logger.Fields(
					logger.FieldError, appErr.Error(),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				))
				body, err := sonic.Marshal(appErr.ToResponse())
				if err != nil {
					body = []byte(`{"error":{"code":"PANIC","message":"panic"}}`)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(appErr.HTTPStatus)
				_, _ = w.Write(body)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
