package worker

import (
	"time"

	"github.com/okian/xg/pkg/logger"
)

// Option configures a worker, or every worker of a pool when given to NewPool.
type Option func(*settings)

type settings struct {
	name    string
	logger  logger.Logger
	slowJob time.Duration
}

func newSettings(opts []Option) settings {
	s := settings{name: "worker"}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// WithName names the worker. In a pool it prefixes each worker's index,
// e.g. "fit-0", "fit-1".
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger worker loggers are named from.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSlowJob logs fit jobs slower than d at warn level. Zero disables it.
func WithSlowJob(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.slowJob = d
		}
	}
}
