// Package testutils provides shared helpers for integration and handler
// tests: a Valkey test container for the liked-set store and httptest
// fakes for the two outbound HTTP dependencies.
package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	redisModule "github.com/testcontainers/testcontainers-go/modules/redis"

	"feed-gallery/internal/config"
	"feed-gallery/internal/platform/cache"
)

// TestContainers manages the containers integration tests need. Only a
// Valkey container today (Redis-compatible, backing the liked set).
type TestContainers struct {
	RedisContainer testcontainers.Container
	LikeStore      *cache.RedisLikeStore
	RedisEndpoint  string
}

// SetupTestContainers starts the test containers and connects clients.
// Callers skip their test when this fails; Docker may not be available.
func SetupTestContainers(ctx context.Context) (*TestContainers, error) {
	containers := &TestContainers{}

	if err := containers.setupRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup redis container: %w", err)
	}

	return containers, nil
}

// setupRedis creates and starts a Valkey test container (Redis-compatible)
func (tc *TestContainers) setupRedis(ctx context.Context) error {
	redisContainer, err := redisModule.Run(ctx,
		"valkey/valkey:7-alpine",
		redisModule.WithSnapshotting(10, 1),
		redisModule.WithLogLevel(redisModule.LogLevelVerbose),
	)
	if err != nil {
		return fmt.Errorf("failed to start valkey container: %w", err)
	}

	tc.RedisContainer = redisContainer

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get valkey endpoint: %w", err)
	}

	tc.RedisEndpoint = endpoint

	store, err := cache.NewRedisLikeStore(config.LikesConfig{
		Enabled:      true,
		Address:      endpoint,
		Database:     0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create like store: %w", err)
	}

	tc.LikeStore = store

	if err := tc.LikeStore.Health(ctx); err != nil {
		return fmt.Errorf("failed to connect to valkey: %w", err)
	}

	return nil
}

// Cleanup terminates the containers and closes connections.
func (tc *TestContainers) Cleanup(ctx context.Context) error {
	var errs []error

	if tc.LikeStore != nil {
		if err := tc.LikeStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close valkey client: %w", err))
		}
	}

	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate valkey container: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}

	return nil
}

// GetRedisEndpoint returns the Valkey endpoint (Redis-compatible)
func (tc *TestContainers) GetRedisEndpoint() string {
	return tc.RedisEndpoint
}
