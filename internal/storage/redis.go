package storage

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

var _ KV = (*RedisStore)(nil)

// RedisStore persists values in Redis, for kiosk-style deployments where
// several gateway restarts (or machines) share the same cart state. Values
// are stored without TTL: the cart is durable, not a cache.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a store using the given client. The prefix
// namespaces all keys, e.g. "papercart:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %q", key)
	}
	return raw, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %q", key)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "redis delete %q", key)
	}
	return nil
}
