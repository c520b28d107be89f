// Package server implements strata's HTTP layout service.
//
// # Endpoints
//
//   - POST /v1/layout: lay out a graph document, respond with the result
//   - POST /v1/render: lay out (or take a finished layout) and render it
//   - GET /healthz: liveness probe
//   - GET /metrics: Prometheus metrics
//
// Every response carries an X-Request-ID header. Errors are JSON objects
// with the machine-readable code of the failure:
//
//	{"error": "INVALID_OPTION", "message": "invalid rankdir: \"XY\" ...", "request_id": "..."}
//
// Invalid input maps to 400, missing resources to 404, exceeded layout
// deadlines to 504 and everything else to 500.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/strata/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes limits request bodies when Config.MaxBodyBytes is 0.
	DefaultMaxBodyBytes = 8 << 20

	shutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr string

	// Runner executes layouts and renders. Required.
	Runner *pipeline.Runner

	// Defaults are merged under the options of every request.
	Defaults pipeline.Options

	// Timeout bounds each layout run when the request does not set one.
	Timeout time.Duration

	MaxBodyBytes int64

	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer

	Logger *log.Logger
}

// Server is the HTTP layout service.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.recordMetrics)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errNotFound(r))
	})
	s.router = r
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
