// Package server exposes the pipeline over a JSON HTTP API.
//
// Routes:
//
//	GET  /healthz     liveness and build information
//	GET  /metrics     Prometheus metrics (when configured)
//	POST /v1/hull     stable complex and phase diagram of a dataset
//	POST /v1/sweep    temperature sweep of a series
//	POST /v1/chempot  chemical-potential polytope of a dataset or series slice
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phasehull/pkg/observability"
	"github.com/matzehuels/phasehull/pkg/pipeline"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 16 << 20

// Config wires the server's dependencies.
type Config struct {
	Addr   string
	Runner *pipeline.Runner
	Logger *log.Logger

	// Defaults are merged under each request's options.
	Defaults pipeline.Options

	// Metrics, when set, is mounted at /metrics.
	Metrics *observability.PrometheusHooks
}

// Server is an HTTP front end for a pipeline runner.
type Server struct {
	cfg    Config
	srv    *http.Server
	router http.Handler
}

// New builds a server. Runner and Logger default to a cache-less runner and
// the default logger.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	s := &Server{cfg: cfg}
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()
	s.cfg.Logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errc
	return nil
}
