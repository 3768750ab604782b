package reload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/engine"
	"github.com/echoreply/echoreply/internal/ratelimit"
)

// Handler loads a fresh configuration from disk, validates it, and
// pushes it into the engine and the rate limiter. The gateway's listen
// address and auth token are fixed for the process lifetime.
type Handler struct {
	path    string
	engine  *engine.Engine
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewHandler creates a reload handler. limiter may be nil.
func NewHandler(path string, eng *engine.Engine, limiter *ratelimit.Limiter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		path:    path,
		engine:  eng,
		limiter: limiter,
		logger:  logger,
	}
}

// Reload re-reads the configuration file and applies it as a whole.
// On any error the previous configuration stays in effect.
func (h *Handler) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload cancelled: %w", err)
	}

	cfg, err := config.Load(h.path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	h.engine.UpdateConfig(*cfg)
	if h.limiter != nil {
		h.limiter.Update(cfg.Reply.MaxRepliesPerMinute, cfg.Reply.MaxRepliesPerHour)
	}

	h.logger.Info("configuration reloaded",
		"provider", cfg.AI.Provider,
		"rules", len(cfg.Reply.Rules),
	)
	return nil
}
