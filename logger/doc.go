// Package logger provides structured logging for pipekit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with map-style structured fields. Output goes to
// stderr unless configured otherwise, which keeps stdout usable as a
// pipeline sink.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Info("pipeline started", logger.Fields("pipeline_id", id))
package logger
