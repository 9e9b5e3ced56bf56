package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"feed-gallery/internal/config"
	"feed-gallery/internal/observability"
	"feed-gallery/internal/platform/server"
	"feed-gallery/internal/services"
	"feed-gallery/internal/web/handlers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	obsCfg := observability.LoadConfig()
	obsCfg.Environment = cfg.Environment
	obsCfg.LogLevel = cfg.Logging.Level
	obsCfg.LogFormat = cfg.Logging.Format

	ctx := context.Background()

	container, err := services.NewContainer(ctx, cfg, obsCfg)
	if err != nil {
		log.Fatalf("Failed to initialize services container: %v", err)
	}

	logger := container.Logger()

	// A feed outage at boot is not fatal: the gallery comes up empty and
	// the first navigation retries.
	if _, err := container.Engine().Start(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("initial feed load failed, starting with empty gallery")
	}

	handler := handlers.NewWithContainer(container)

	var router http.Handler
	metrics, err := observability.NewHTTPMetrics(container.Provider().Meter("feed-gallery"))
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("failed to create HTTP metrics, serving uninstrumented")
		router = handler.Routes()
	} else {
		router = handler.RoutesWithMetrics(metrics)
	}

	srv := server.New(cfg.Port, router, cfg.Server)

	go func() {
		logger.Info(ctx).Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx).Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx).Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx).Err(err).Msg("server forced to shutdown")
	}

	if err := container.Close(shutdownCtx); err != nil {
		logger.Error(shutdownCtx).Err(err).Msg("failed to close container cleanly")
	}

	logger.Info(context.Background()).Msg("server exited")
}
