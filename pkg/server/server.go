// Package server exposes the latest analysis report over HTTP.
//
// The server holds one [pipeline.Result] at a time. [Server.Reload] runs
// the pipeline again and swaps the result atomically, so handlers always
// see a complete report. A failed reload keeps serving the previous one.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/jarscope/pkg/errors"
	"github.com/matzehuels/jarscope/pkg/pipeline"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 120 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	// Runner executes the pipeline. Required.
	Runner *pipeline.Runner
	// Options are passed to every analysis run.
	Options pipeline.Options
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// Title is the heading of the HTML report.
	Title  string
	Logger *log.Logger
}

// Server serves analysis reports.
type Server struct {
	runner  *pipeline.Runner
	metrics http.Handler
	title   string
	logger  *log.Logger

	mu   sync.Mutex
	opts pipeline.Options

	// reloadMu serializes Analyze and Swap so reloads publish in start order.
	reloadMu sync.Mutex

	current atomic.Pointer[pipeline.Result]
	router  chi.Router
}

// New creates a server. It does not analyze anything until Reload is called.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "server requires a pipeline runner")
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.Runner.Logger
	}
	if cfg.Title == "" {
		cfg.Title = "jarscope report"
	}
	s := &Server{
		runner:  cfg.Runner,
		opts:    cfg.Options,
		metrics: cfg.Metrics,
		title:   cfg.Title,
		logger:  cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

// Reload re-runs the analysis and publishes the result. Concurrent reloads
// run one at a time, so the published result always comes from the options
// current when the last reload started.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.mu.Lock()
	opts := s.opts
	s.mu.Unlock()

	result, err := s.runner.Analyze(ctx, opts)
	if err != nil {
		if prev := s.current.Load(); prev != nil {
			s.logger.Error("reload failed, serving previous report", "run", prev.RunID, "error", err)
		}
		return err
	}
	prev := s.current.Swap(result)
	if prev == nil || prev.Key != result.Key {
		s.logger.Info("report published",
			"run", result.RunID,
			"severity", result.Report.Severity,
			"archives", result.Stats.Archives)
	}
	return nil
}

// SetOptions replaces the options used by subsequent reloads.
func (s *Server) SetOptions(opts pipeline.Options) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

// Current returns the published result, or nil before the first Reload.
func (s *Server) Current() *pipeline.Result { return s.current.Load() }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
