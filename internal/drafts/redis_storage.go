package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps drafts in Redis, optionally expiring abandoned ones.
type RedisStorage struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStorage wraps client. A zero ttl keeps drafts until cleared.
func NewRedisStorage(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStorage {
	if client == nil {
		panic("drafts: redis client required")
	}
	return &RedisStorage{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("drafts: redis get: %w", err)
	}
	return data, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("drafts: redis set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("drafts: redis del: %w", err)
	}
	return nil
}

var _ Storage = (*RedisStorage)(nil)
