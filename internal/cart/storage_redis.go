package cart

import (
	"context"
	"errors"
	"time"

	"github.com/glowhaus/storefront-backend/pkg/redis"
)

// RedisStorage keeps snapshots as plain string values under sf:<key>.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage builds a redis-backed Storage. A zero ttl keeps snapshots forever.
func NewRedisStorage(client *redis.Client, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.client.NamespacedKey(key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, payload []byte) error {
	return r.client.Set(ctx, r.client.NamespacedKey(key), payload, r.ttl)
}
