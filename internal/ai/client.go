// Package ai selects the active language-model provider and exposes a
// provider-agnostic surface to the decision engine.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/provider"
)

// Client is the provider-selection facade. It owns one client per
// provider variant and routes calls to whichever the configuration
// names. Switching providers takes effect on the next call; neither
// conversation state nor tracker state is reconstructed.
type Client struct {
	mu     sync.RWMutex
	cfg    config.AIConfig
	local  provider.Client
	hosted provider.Client
	logger *slog.Logger
}

// New creates a Client with both provider variants constructed up front.
func New(cfg config.AIConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		local:  provider.NewLocalClient(cfg, logger),
		hosted: provider.NewHostedClient(cfg, logger),
		logger: logger,
	}
}

// Provider returns the configured provider.
func (c *Client) Provider() config.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Provider
}

// UpdateConfig replaces the configuration and propagates it to both
// underlying clients, so a provider switch is fully effective on the
// next call.
func (c *Client) UpdateConfig(cfg config.AIConfig) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()

	c.local.UpdateConfig(cfg)
	c.hosted.UpdateConfig(cfg)
}

// Enabled reports whether the AI reply path is turned on.
func (c *Client) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Enabled
}

// IsConnected reports whether the active provider's configuration is
// complete. Always false when the AI path is disabled. No network I/O.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	cfg := c.cfg
	c.mu.RUnlock()

	if !cfg.Enabled {
		return false
	}
	return c.active(cfg.Provider).IsConnected()
}

// GenerateReply delegates to the active provider client.
func (c *Client) GenerateReply(ctx context.Context, messages []provider.ChatMessage) (string, error) {
	return c.active(c.Provider()).GenerateReply(ctx, messages)
}

// TestConnection delegates to the active provider client.
func (c *Client) TestConnection(ctx context.Context) provider.TestResult {
	return c.active(c.Provider()).TestConnection(ctx)
}

func (c *Client) active(p config.Provider) provider.Client {
	if p == config.ProviderHosted {
		return c.hosted
	}
	return c.local
}

// ValidateProviderConfig statelessly checks whether the named
// provider's configuration is complete, naming the missing field.
func ValidateProviderConfig(cfg config.AIConfig, p config.Provider) error {
	switch p {
	case config.ProviderHosted:
		if cfg.Hosted.APIKey == "" {
			return fmt.Errorf("hosted provider: api_key is required")
		}
		if cfg.Hosted.Model == "" {
			return fmt.Errorf("hosted provider: model is required")
		}
	case config.ProviderLocal:
		if cfg.Local.Endpoint == "" {
			return fmt.Errorf("local provider: endpoint is required")
		}
		if cfg.Local.Port < 1 || cfg.Local.Port > 65535 {
			return fmt.Errorf("local provider: port must be in [1,65535], got %d", cfg.Local.Port)
		}
	default:
		return fmt.Errorf("unknown provider %q", p)
	}
	return nil
}

// Status describes the active provider's readiness.
type Status struct {
	Provider  config.Provider `json:"provider"`
	Connected bool            `json:"connected"`
	Error     string          `json:"error,omitempty"`
}

// ProviderStatus reports the active provider and whether it is ready,
// deriving the error text from validation when it is not.
func (c *Client) ProviderStatus() Status {
	c.mu.RLock()
	cfg := c.cfg
	c.mu.RUnlock()

	st := Status{Provider: cfg.Provider, Connected: c.IsConnected()}
	if !st.Connected {
		if !cfg.Enabled {
			st.Error = "ai is disabled"
		} else if err := ValidateProviderConfig(cfg, cfg.Provider); err != nil {
			st.Error = err.Error()
		}
	}
	return st
}
