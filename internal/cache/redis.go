package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/foodscan/internal/domain/product"
)

const redisKeyPrefix = "foodscan:product:"

// Redis is a product cache backed by a redis instance, for deployments where
// several resolver processes share one cache. Expiry is delegated to redis
// key TTLs.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis creates a redis-backed cache against addr.
func NewRedis(addr string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies connectivity, for readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the cached record for barcode when present.
func (r *Redis) Get(ctx context.Context, barcode string) (*product.Product, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+barcode).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}

	var p product.Product
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten by the
		// next write-back.
		return nil, false, nil
	}
	return &p, true, nil
}

// Set stores p under its barcode with the configured TTL.
func (r *Redis) Set(ctx context.Context, p *product.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encode product")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+p.Barcode, data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
