package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "chessdesk:session:record"

// RedisStore keeps the record under a single Redis key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(redisURL, key string) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		key = defaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

// NewRedisStoreWithClient is used by tests and callers that manage the
// client themselves.
func NewRedisStoreWithClient(rdb *redis.Client, key string) *RedisStore {
	if strings.TrimSpace(key) == "" {
		key = defaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Save(ctx context.Context, record string) error {
	return r.rdb.Set(ctx, r.key, record, 0).Err()
}

func (r *RedisStore) Load(ctx context.Context) (string, error) {
	raw, err := r.rdb.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return "", ErrNoRecord
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

func (r *RedisStore) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
