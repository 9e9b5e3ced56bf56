// Package services wires the application dependencies.
package services

import (
	"context"

	"go.opentelemetry.io/otel"

	"feed-gallery/internal/backfill"
	"feed-gallery/internal/config"
	domain "feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/feed"
	"feed-gallery/internal/gallery"
	"feed-gallery/internal/observability"
	"feed-gallery/internal/platform/cache"
)

// Container holds all the application dependencies.
type Container struct {
	config   *config.Config
	logger   *observability.Logger
	provider *observability.Provider

	feedClient *feed.Client
	generator  *backfill.GeminiGenerator
	pipeline   *backfill.Pipeline

	likeStore  domain.LikeStore
	redisStore *cache.RedisLikeStore

	engine *gallery.Engine
}

// NewContainer creates the dependency injection container. The AI
// generator and Redis like store are optional: when the AI key is missing
// the backfill endpoint reports the failure per run, and without Redis
// likes fall back to in-process storage.
func NewContainer(ctx context.Context, cfg *config.Config, obsCfg observability.Config) (*Container, error) {
	provider, err := observability.NewProvider(ctx, obsCfg)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(obsCfg)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(logger.OTELErrorHandler()))

	c := &Container{
		config:   cfg,
		logger:   logger,
		provider: provider,
	}

	tracer := provider.Tracer("feed-gallery")
	meter := provider.Meter("feed-gallery")

	c.feedClient = feed.NewClient(cfg.Feed, logger, tracer, meter)

	encoder := backfill.NewEncoder(cfg.Backfill, logger, tracer)

	var gen backfill.Generator
	if cfg.AI.Enabled {
		g, err := backfill.NewGeminiGenerator(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("AI metadata generation unavailable")
		} else {
			c.generator = g
			gen = g
		}
	} else {
		logger.Info(ctx).Msg("AI metadata generation disabled by configuration")
	}

	c.pipeline = backfill.NewPipeline(encoder, gen, logger, tracer, meter)

	if cfg.Likes.Enabled {
		store, err := cache.NewRedisLikeStore(cfg.Likes)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
		c.redisStore = store
		c.likeStore = store
		logger.Info(ctx).Str("address", cfg.Likes.Address).Msg("liked set persisted in Redis")
	} else {
		c.likeStore = cache.NewMemoryLikeStore()
		logger.Info(ctx).Msg("liked set kept in memory, likes will not survive restarts")
	}

	c.engine = gallery.NewEngine(
		c.feedClient,
		c.feedClient,
		c.likeStore,
		nil,
		c.pipeline,
		logger,
		tracer,
	)

	return c, nil
}

func (c *Container) Config() *config.Config { return c.config }

func (c *Container) Logger() *observability.Logger { return c.logger }

func (c *Container) Provider() *observability.Provider { return c.provider }

func (c *Container) Engine() *gallery.Engine { return c.engine }

func (c *Container) FeedClient() *feed.Client { return c.feedClient }

func (c *Container) LikeStore() domain.LikeStore { return c.likeStore }

// LikeStoreHealth checks the Redis connection backing the liked set.
// Nil when the in-memory store is active.
func (c *Container) LikeStoreHealth(ctx context.Context) error {
	if c.redisStore == nil {
		return nil
	}
	return c.redisStore.Health(ctx)
}

// Close cleans up resources.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error

	if c.generator != nil {
		if err := c.generator.Close(); err != nil {
			firstErr = err
		}
	}
	if c.redisStore != nil {
		if err := c.redisStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.provider != nil {
		if err := c.provider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
