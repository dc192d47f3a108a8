// Package registry stores trained model artifacts by run id.
package registry

import (
	"context"

	"github.com/okian/xg/internal/domain/tune"
)

// Registry publishes artifacts and serves them back.
type Registry interface {
	// Put stores a and makes it the latest model.
	Put(ctx context.Context, a *tune.Artifact) error
	// Get returns the artifact of runID, or ErrNotFound.
	Get(ctx context.Context, runID string) (*tune.Artifact, error)
	// Latest returns the most recently published artifact, or ErrNotFound.
	Latest(ctx context.Context) (*tune.Artifact, error)
}
