package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"ruleworks/arbiter/pkg/config"
	"ruleworks/arbiter/pkg/engine"
)

// Server serves the rule evaluation API.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	logger *slog.Logger

	// metricsHandler, when set, is mounted at cfg.Metrics.Path.
	metricsHandler http.Handler

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	running      bool
}

// New creates a server over the given engine.
func New(cfg *config.Config, eng *engine.Engine, metricsHandler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:            cfg,
		engine:         eng,
		logger:         logger.With("component", "server"),
		metricsHandler: metricsHandler,
	}
}

// Start starts the HTTP listener and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.cfg.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.running = false
		s.mu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the listener is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler returns the configured route tree. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/execute", s.handleExecute())
	mux.Handle("GET /v1/rulesets", s.handleRulesets())
	mux.Handle("GET /healthz", s.handleHealth())
	if s.cfg.Metrics.Enabled && s.metricsHandler != nil {
		mux.Handle("GET "+s.cfg.Metrics.Path, s.metricsHandler)
	}

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	return handler
}
