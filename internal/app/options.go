package service

import (
	"time"

	"github.com/okian/xg/internal/adapters/registry"
	"github.com/okian/xg/internal/adapters/repository"
	"github.com/okian/xg/internal/config"
	"github.com/okian/xg/internal/domain/encode"
	"github.com/okian/xg/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithWorkerCount overrides the configured number of fit workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the fit job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStore persists training rows, candidates and diagnostics of every run.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRegistry publishes the trained artifact of every run.
func WithRegistry(reg registry.Registry) Option {
	return func(s *Service) {
		s.registry = reg
	}
}

// WithRecipes restricts model selection to recipes.
func WithRecipes(recipes ...encode.Recipe) Option {
	return func(s *Service) {
		if len(recipes) > 0 {
			s.recipes = recipes
		}
	}
}

// WithClock sets the time source used to stamp artifacts.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunID sets the generator of run identifiers.
func WithRunID(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.runID = next
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
