// Package errors provides the coded error type shared by every pipekit
// package. Errors raised while wiring a pipeline (an end used in a direction
// it does not support, work scheduled without a worker) and errors raised
// while running one (a faulted stage, a panic) are *AppError values with a
// machine-readable Code, optional Details and an HTTP status for the report
// endpoints.
package errors
