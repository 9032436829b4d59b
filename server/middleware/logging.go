package middleware

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/observability"
)

var probePaths = []string{"/health", "/alive", "/ready", "/metrics"}

// recorder remembers the first status code and the number of body bytes a
// handler writes.
type recorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rec *recorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach Flush and deadlines on the
// wrapped writer.
func (rec *recorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

func (rec *recorder) code() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// RequestLogger returns middleware that logs every request with method,
// path, status code, response size and duration, and records it in metrics
// when metrics is not nil. Probe paths are neither logged nor measured.
func RequestLogger(log *logger.Logger, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(probePaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			took := time.Since(start)
			status := rec.code()

			if metrics != nil {
				metrics.RecordRequest(context.WithoutCancel(r.Context()), r.Method, r.URL.Path, status, took)
			}

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", rec.written,
				logger.FieldDuration, took.Milliseconds(),
			)
			if id := r.Header.Get(RequestIDHeader); id != "" {
				fields[logger.FieldRequestID] = id
			}
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request served", fields)
			case status >= http.StatusBadRequest:
				log.Warn("request served", fields)
			default:
				log.Debug("request served", fields)
			}
		})
	}
}
