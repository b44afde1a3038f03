package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// RedisCache keeps each session as one JSON value. Every Set renews the TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func (r *RedisCache) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	if s.Cart == nil {
		s.Cart = domain.NewCart()
	}
	return &s, nil
}

func (r *RedisCache) Set(ctx context.Context, s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, cacheKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}
