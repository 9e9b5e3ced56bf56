// Package cache persists the liked-image set. The Redis-backed store is
// the production implementation; the in-memory store serves tests and
// deployments without Redis.
// Note: works with both Redis and Valkey (Redis-compatible).
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"feed-gallery/internal/config"
)

// likedSetKey is the single Redis set holding the ids the local user has
// liked. One set per deployment; the gallery is a single-user client.
const likedSetKey = "gallery:liked_ids"

// RedisLikeStore keeps the liked set in a Redis set, surviving process
// restarts.
type RedisLikeStore struct {
	client *redis.Client
}

// NewRedisLikeStore connects to Redis and verifies the connection with a
// ping before returning.
func NewRedisLikeStore(cfg config.LikesConfig) (*RedisLikeStore, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("likes persistence is disabled")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis/Valkey: %w", err)
	}

	return &RedisLikeStore{client: rdb}, nil
}

// Contains reports whether the id is in the liked set.
func (s *RedisLikeStore) Contains(ctx context.Context, id string) (bool, error) {
	liked, err := s.client.SIsMember(ctx, likedSetKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check liked set: %w", err)
	}
	return liked, nil
}

// Add inserts the id into the liked set.
func (s *RedisLikeStore) Add(ctx context.Context, id string) error {
	if err := s.client.SAdd(ctx, likedSetKey, id).Err(); err != nil {
		return fmt.Errorf("failed to add to liked set: %w", err)
	}
	return nil
}

// Remove deletes the id from the liked set.
func (s *RedisLikeStore) Remove(ctx context.Context, id string) error {
	if err := s.client.SRem(ctx, likedSetKey, id).Err(); err != nil {
		return fmt.Errorf("failed to remove from liked set: %w", err)
	}
	return nil
}

// All returns every liked id. Order is unspecified.
func (s *RedisLikeStore) All(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, likedSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load liked set: %w", err)
	}
	return ids, nil
}

// Health checks the Redis/Valkey connection.
func (s *RedisLikeStore) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis/Valkey health check failed: %w", err)
	}
	return nil
}

// Close closes the Redis/Valkey connection.
func (s *RedisLikeStore) Close() error {
	return s.client.Close()
}
