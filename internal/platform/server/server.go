package server

import (
	"net/http"

	"feed-gallery/internal/config"
)

func New(port string, handler http.Handler, cfg *config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
