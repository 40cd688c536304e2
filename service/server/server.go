package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/drainwatch/drainwatch/service/analyze"
	"github.com/drainwatch/drainwatch/service/config"
	"github.com/drainwatch/drainwatch/service/metrics"
	"github.com/drainwatch/drainwatch/service/nats"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server for the drainer analysis service.
type Server struct {
	addr      string
	cfg       *config.Config
	resolver  analyze.Resolver
	registry  RegistryClient
	publisher nats.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The registry client may be nil, in which case report endpoints are disabled.
// The publisher is optional - if nil, report events are not published.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, resolver analyze.Resolver, registry RegistryClient, publisher nats.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:      addr,
		cfg:       cfg,
		resolver:  resolver,
		registry:  registry,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Analysis routes
	mux.Handle("GET /api/v1/analyze",
		s.instrument("analyze", handleAnalyze(s.resolver, s.cfg, s.logger)))

	// Registry routes (if registry client is configured)
	if s.registry != nil {
		mux.Handle("GET /api/v1/report/{address}",
			s.instrument("get_report", handleGetReport(s.registry, s.logger)))
		mux.Handle("POST /api/v1/report",
			s.instrument("submit_report", handleSubmitReport(s.registry, s.publisher, s.logger)))
	} else {
		s.logger.Warn("registry client not configured, report endpoints disabled")
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS middleware
	handler := corsMiddleware(mux)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// instrument wraps a handler with request metrics when a collector is
// configured.
func (s *Server) instrument(name string, h http.Handler) http.Handler {
	if s.metrics == nil {
		return h
	}
	return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers for all requests
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Pass through to next handler
		next.ServeHTTP(w, r)
	})
}
