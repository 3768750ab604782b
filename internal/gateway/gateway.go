// Package gateway provides the HTTP boundary: it receives incoming
// messages, returns the engine's replies, and exposes health, status,
// metrics, memory, and admin endpoints.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/engine"
	"github.com/echoreply/echoreply/internal/memory"
	"github.com/echoreply/echoreply/internal/ratelimit"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// ReloadFunc re-reads and applies the configuration. The gateway calls
// it from POST /config/reload; wiring is the caller's concern.
type ReloadFunc func(ctx context.Context) error

// Server is the HTTP gateway. The listen address and auth token are
// fixed for the process lifetime; everything behind them hot-reloads.
type Server struct {
	cfg       config.ServerConfig
	engine    *engine.Engine
	limiter   *ratelimit.Limiter
	store     memory.Store
	metrics   *Metrics
	reload    ReloadFunc
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a Server. store and reload may be nil; the corresponding
// endpoints then report the feature as unavailable.
func New(cfg config.ServerConfig, eng *engine.Engine, limiter *ratelimit.Limiter, store memory.Store, reload ReloadFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		engine:  eng,
		limiter: limiter,
		store:   store,
		metrics: NewMetrics(),
		reload:  reload,
		logger:  logger,
	}
}

// Metrics exposes the gateway's metric set so collaborators (the
// connection probe) can record into it.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start binds the listener and serves in a background goroutine.
func (s *Server) Start() error {
	s.startedAt = time.Now()

	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.cfg.Listen)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("gateway listening", "addr", s.cfg.Listen)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("gateway shutting down")
	return s.server.Shutdown(shutdownCtx)
}
