package registry

import "time"

// RedisOption applies a configuration option to the RedisRegistry.
type RedisOption func(*RedisRegistry)

// WithTTL expires stored artifacts after ttl. LatestKey never expires.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisRegistry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}
