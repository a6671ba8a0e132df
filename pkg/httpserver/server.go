package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/pkg/healthprobe"
	"github.com/cryptoedge/bot/pkg/wsfeed"
)

// OpportunitiesSource supplies the opportunities ranked in the most recent
// tick, for GET /opportunities.
type OpportunitiesSource interface {
	Opportunities() []model.Opportunity
}

// SessionSource supplies the current bot session, for GET /session.
type SessionSource interface {
	Session() *model.BotSession
}

// Server provides HTTP endpoints for metrics, health checks, and the
// read-only operator views of bot state.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Opportunities OpportunitiesSource
	Session       SessionSource
	Hub           *wsfeed.Hub
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	if cfg.Opportunities != nil {
		r.Get("/opportunities", NewOpportunitiesHandler(cfg.Opportunities, cfg.Logger).Handle)
	}
	if cfg.Session != nil {
		r.Get("/session", NewSessionHandler(cfg.Session, cfg.Logger).Handle)
	}
	if cfg.Hub != nil {
		r.Get("/ws", wsfeed.Handler(cfg.Hub, cfg.Logger))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server. This is a blocking call that returns when
// the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
