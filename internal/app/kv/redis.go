package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each namespace in one redis hash.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis %s: %w", addr, err)
	}

	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, hashKey(namespace), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s for visitor %s: %w", key, namespace, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, namespace, key, value string) error {
	if err := s.rdb.HSet(ctx, hashKey(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("failed to set %s for visitor %s: %w", key, namespace, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.HDel(ctx, hashKey(namespace), keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys for visitor %s: %w", namespace, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func hashKey(namespace string) string {
	return fmt.Sprintf("visitor_%s", namespace)
}
