// Package server provides the HTTP server that exposes pipeline reports,
// built on Gin and served over HTTP/1.1 and h2c.
//
// # Middleware
//
// Built-in middleware (server/middleware), applied around every route:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - CORS: cross-origin resource sharing
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging and request metrics
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: health check aggregation
//   - /alive, /ready: liveness and readiness probes
//   - /info: build and version information
//   - /metrics: runtime memory and goroutine figures
package server
