// Package api provides the bridge's admin REST API: process health,
// runtime statistics, and the running channel list, via a Gin-based HTTP
// server (spec.md §1's "monitoring" external boundary, expanded in
// SPEC_FULL.md §C8).
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corvidsystems/bridge/internal/api/handlers"
	"github.com/corvidsystems/bridge/internal/api/middleware"
	"github.com/corvidsystems/bridge/internal/channel"
)

// Config controls the admin server's bind address and optional API key.
// An empty APIKey leaves every route unauthenticated.
type Config struct {
	Host   string
	Port   int
	APIKey string
}

// Server is the admin REST API server.
//
// Security note: do not expose the API to untrusted networks without an
// API key.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to manager's channel registry.
func New(cfg Config, manager *channel.Manager, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(manager, logger)
	RegisterRoutes(engine, h, cfg.APIKey)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
