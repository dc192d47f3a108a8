package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/xg/internal/domain/tune"
)

// Redis keys.
const (
	keyPrefix = "xg:model:"
	LatestKey = keyPrefix + "latest"
	IndexKey  = "xg:models"
)

// ModelKey is the key holding runID's artifact.
func ModelKey(runID string) string { return keyPrefix + runID }

// RedisRegistry keeps artifacts as JSON strings. LatestKey holds the run id
// of the newest model and IndexKey orders run ids by creation time.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedis returns a registry on client. Artifacts never expire unless
// WithTTL is given.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisRegistry {
	r := &RedisRegistry{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put implements Registry.
func (r *RedisRegistry) Put(ctx context.Context, a *tune.Artifact) error {
	raw, err := a.Marshal()
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %w", ErrStore, a.RunID, err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, ModelKey(a.RunID), raw, r.ttl)
		p.Set(ctx, LatestKey, a.RunID, 0)
		p.ZAdd(ctx, IndexKey, redis.Z{Score: float64(a.CreatedAt.UnixMilli()), Member: a.RunID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// Get implements Registry.
func (r *RedisRegistry) Get(ctx context.Context, runID string) (*tune.Artifact, error) {
	raw, err := r.client.Get(ctx, ModelKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return tune.Unmarshal(raw)
}

// Latest implements Registry.
func (r *RedisRegistry) Latest(ctx context.Context) (*tune.Artifact, error) {
	runID, err := r.client.Get(ctx, LatestKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return r.Get(ctx, runID)
}

// Runs returns up to n run ids, newest first.
func (r *RedisRegistry) Runs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := r.client.ZRevRange(ctx, IndexKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return ids, nil
}
