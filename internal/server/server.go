// Package server exposes typing analysis over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/logging"
	"github.com/verte-zerg/neurosense/internal/model"
)

const (
	// DefaultMaxBodyBytes caps request bodies and websocket frames.
	DefaultMaxBodyBytes = 1 << 20

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	analyzer     atomic.Pointer[analysis.Analyzer]
	history      model.HistoryProvider
	recorder     model.HistoryRecorder
	schema       *jsonschema.Schema
	maxBodyBytes int64
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables the history endpoints and saves successful analyses.
// Either side may be nil.
func WithHistory(p model.HistoryProvider, r model.HistoryRecorder) Option {
	return func(s *Server) {
		s.history = p
		s.recorder = r
	}
}

// WithLogger sets the logger used for request and error logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// New builds a Server that analyzes with a.
func New(a *analysis.Analyzer, opts ...Option) (*Server, error) {
	if a == nil {
		return nil, errors.New("analyzer is required")
	}
	schema, err := compileEnvelopeSchema()
	if err != nil {
		return nil, err
	}
	s := &Server{
		schema:       schema,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logging.Discard(),
		now:          time.Now,
	}
	s.analyzer.Store(a)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetAnalyzer replaces the analyzer used by subsequent requests. Requests
// already in flight finish with the analyzer they started with.
func (s *Server) SetAnalyzer(a *analysis.Analyzer) {
	if a == nil {
		return
	}
	s.analyzer.Store(a)
}

// Analyzer returns the analyzer currently serving requests.
func (s *Server) Analyzer() *analysis.Analyzer {
	return s.analyzer.Load()
}

// Handler returns the root handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return s.logRequests(allowCORS(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Live websocket sessions are closed with ctx.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server starting", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
