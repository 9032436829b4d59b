package bootstrap

import (
	"os"
	"syscall"
	"time"

	"github.com/kbukum/pipekit/logger"
)

// Option customises NewApp. Options do not depend on the config type.
type Option func(*settings)

type settings struct {
	log      *logger.Logger
	graceful time.Duration
	signals  []os.Signal
}

func newSettings(opts []Option) settings {
	s := settings{
		graceful: 15 * time.Second,
		signals:  []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger uses l instead of initializing the global logger from the
// config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithGracefulTimeout bounds the time all stop hooks get together.
// Non-positive durations are ignored.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.graceful = d
		}
	}
}

// WithSignals replaces SIGINT and SIGTERM as the signals that cancel the
// task.
func WithSignals(sigs ...os.Signal) Option {
	return func(s *settings) { s.signals = sigs }
}
