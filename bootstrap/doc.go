// Package bootstrap runs a configured task with lifecycle hooks.
//
// NewApp applies defaults to and validates a config embedding
// config.ServiceConfig, then initializes the global logger from it.
// RunTask runs the start hooks, the task itself under a context cancelled by
// SIGINT or SIGTERM, and finally the stop hooks, so servers and telemetry
// exporters opened for a task are always shut down.
package bootstrap
