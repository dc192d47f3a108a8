package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Open returns the Redis registry when redisAddr is set, else the file
// registry when path is set, else nil. The returned close func is never nil.
func Open(ctx context.Context, redisAddr, path string, opts ...RedisOption) (Registry, func() error, error) {
	noop := func() error { return nil }
	switch {
	case redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("%w: ping %s: %w", ErrStore, redisAddr, err)
		}
		return NewRedis(client, opts...), client.Close, nil
	case path != "":
		return NewFile(path), noop, nil
	default:
		return nil, noop, nil
	}
}
