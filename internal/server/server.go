package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ternarybob/pasar/internal/app"
)

// sweepMargin is added to the prediction timeout so /api/picks can finish
// writing after the slowest sweep the config allows
const sweepMargin = 30 * time.Second

// Server serves the pasar API
type Server struct {
	app    *app.App
	server *http.Server
}

// New builds the API server for the application
func New(application *app.App) *Server {
	s := &Server{app: application}

	cfg := application.Config
	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           s.withMiddleware(s.setupRoutes()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Prediction.Timeout + sweepMargin,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	s.app.Logger.Info().
		Str("address", s.server.Addr).
		Dur("write_timeout", s.server.WriteTimeout).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests before returning
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
