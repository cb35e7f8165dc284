// Package idempotency replays the first response of a POST carrying an Idempotency-Key.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type CachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type Store interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*CachedResponse, error)
	Save(ctx context.Context, key string, resp CachedResponse, ttl time.Duration) error
	// Lock reports false when another request holds the key.
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore { return &RedisStore{client: client} }

func (s *RedisStore) Get(ctx context.Context, key string) (*CachedResponse, error) {
	val, err := s.client.Get(ctx, "idempotency:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	var resp CachedResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal cached response: %w", err)
	}
	return &resp, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, resp CachedResponse, ttl time.Duration) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	return s.client.Set(ctx, "idempotency:"+key, b, ttl).Err()
}

func (s *RedisStore) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "idempotency-lock:"+key, 1, ttl).Result()
}

func (s *RedisStore) Unlock(ctx context.Context, key string) error {
	return s.client.Del(ctx, "idempotency-lock:"+key).Err()
}
