// Package server implements the flowmap preview server.
//
// The server renders the same pipeline as the CLI on demand and serves a
// small page that toggles between the simple and the full view. Every view
// request reloads the dataset and, for the full view, activates a new force
// simulation, so edits to the dataset show up on the next toggle.
//
// Routes:
//
//	GET  /healthz             liveness and build info
//	GET  /metrics             Prometheus metrics (when enabled)
//	GET  /                    view switcher page
//	GET  /api/graph           filtered graph as force-graph JSON
//	GET  /api/diagnostics     dropped flows and applications
//	GET  /views/{view}.{fmt}  rendered view, ?width=&height= override the size
//	POST /api/convert         spreadsheet upload (multipart field "file") to JSON
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowmap/pkg/assets"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// shutdownTimeout bounds graceful shutdown once the context is done.
const shutdownTimeout = 5 * time.Second

// Server serves rendered views over HTTP.
type Server struct {
	runner  *pipeline.Runner
	base    pipeline.Options // never validated; each request validates a copy
	logger  *log.Logger
	metrics *Metrics
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m at /metrics and installs it as the observability
// hooks.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server that renders through runner. The options are
// validated once up front so a bad config fails at startup.
func New(runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger, options ...Option) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts.Logger = logger

	check := opts
	if err := check.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	if opts.Icons == nil {
		opts.Icons = assets.New(
			assets.WithDir(opts.Render.IconDir),
			assets.WithCache(runner.Cache, runner.Keyer),
			assets.WithLogger(logger),
		)
	}

	s := &Server{runner: runner, base: opts, logger: logger}
	for _, o := range options {
		o(s)
	}
	if s.metrics != nil {
		s.metrics.Install()
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	check := s.base
	_ = check.ValidateAndSetDefaults()

	srv := &http.Server{
		Addr:              check.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", srv.Addr, "metrics", s.metrics != nil)

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// options returns a fresh copy of the base options for one request.
func (s *Server) options() pipeline.Options {
	return s.base
}
