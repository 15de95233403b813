// Package server assembles the HTTP server for the registry API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nftzone/registry-indexer/internal/api/middleware"
	"github.com/nftzone/registry-indexer/internal/api/rest"
	"github.com/nftzone/registry-indexer/internal/keyring"
	"github.com/nftzone/registry-indexer/internal/publisher"
	"github.com/nftzone/registry-indexer/internal/reducer"
	"github.com/nftzone/registry-indexer/internal/store"
)

// Config holds server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Store      store.Store
	Publisher  *publisher.Publisher
	Reducer    *reducer.Reducer
	Resolver   keyring.AddressResolver
	DefaultKey string
}

// Server is the registry API server
type Server struct {
	cfg        Config
	httpServer *http.Server
}

// New creates a server from config
func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Start builds the router and serves until the listener fails or Shutdown
// is called
func (s *Server) Start() error {
	if s.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	handler := rest.NewHandler(s.cfg.Store, s.cfg.Publisher, s.cfg.Reducer, s.cfg.Resolver, s.cfg.DefaultKey)
	rest.SetupRoutes(router, handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
