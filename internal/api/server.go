package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/seasonarr/internal/api/handlers"
	"github.com/amaumene/seasonarr/internal/api/middleware"
	"github.com/amaumene/seasonarr/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	runner  handlers.Runner
	version string
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, runner handlers.Runner, version string, logger *logrus.Logger) *Server {
	s := &Server{
		runner:  runner,
		version: version,
		logger:  logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.version, s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	// Last run status
	statusHandler := handlers.NewStatusHandler(s.runner, s.logger)
	mux.HandleFunc("/api/status", statusHandler.ServeHTTP)

	// Manual run trigger
	triggerHandler := handlers.NewTriggerHandler(s.runner, s.logger)
	mux.HandleFunc("/api/run", triggerHandler.ServeHTTP)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
