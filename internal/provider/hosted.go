package provider

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/echoreply/echoreply/internal/config"
)

// defaultHostedBaseURL is the completions API used when the
// configuration does not override it.
const defaultHostedBaseURL = "https://api.openai.com/v1"

// HostedClient talks to a hosted third-party completions API using a
// bearer credential.
type HostedClient struct {
	mu      sync.RWMutex
	cfg     config.AIConfig
	tracker *ErrorTracker
	hc      *http.Client
	logger  *slog.Logger

	sleep func(context.Context, time.Duration) error
}

// NewHostedClient creates a client for the hosted API.
func NewHostedClient(cfg config.AIConfig, logger *slog.Logger) *HostedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HostedClient{
		cfg:     cfg,
		tracker: NewErrorTracker(cfg.Backoff),
		hc:      &http.Client{},
		logger:  logger.With("provider", "hosted"),
		sleep:   sleepCtx,
	}
}

// Compile-time interface check.
var _ Client = (*HostedClient)(nil)

// GenerateReply implements Client.
func (c *HostedClient) GenerateReply(ctx context.Context, messages []ChatMessage) (string, error) {
	cfg := c.snapshot()
	if cfg.Hosted.APIKey == "" || cfg.Hosted.Model == "" {
		return "", ErrNotConfigured
	}

	if !c.tracker.ShouldRetry() {
		c.logger.Warn("circuit open, skipping request",
			"consecutive_errors", c.tracker.ConsecutiveErrors())
		return "", ErrCircuitOpen
	}

	if d := c.tracker.BackoffDelay(); d > 0 {
		c.logger.Debug("backing off before attempt", "delay", d)
		if err := c.sleep(ctx, d); err != nil {
			return "", classifyTransportError(ctx, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	body := chatRequest{
		Model:       cfg.Hosted.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	reply, err := postChat(callCtx, c.hc, hostedBaseURL(cfg.Hosted)+"/chat/completions", cfg.Hosted.APIKey, body)
	if err != nil {
		c.tracker.RecordError()
		c.logger.Warn("generation failed", "error", err)
		return "", err
	}

	c.tracker.RecordSuccess()
	return reply, nil
}

// TestConnection implements Client. Independent of the tracker.
func (c *HostedClient) TestConnection(ctx context.Context) TestResult {
	cfg := c.snapshot()
	if cfg.Hosted.APIKey == "" {
		return TestResult{Err: ErrNotConfigured}
	}

	model, err := probeModels(ctx, c.hc, hostedBaseURL(cfg.Hosted)+"/models", cfg.Hosted.APIKey)
	if err != nil {
		return TestResult{Err: err}
	}
	if model == "" {
		model = cfg.Hosted.Model
	}
	return TestResult{Success: true, ModelName: model}
}

// IsConnected implements Client: the credential is non-empty.
// No network probe.
func (c *HostedClient) IsConnected() bool {
	return c.snapshot().Hosted.APIKey != ""
}

// UpdateConfig implements Client. Tracker counters are preserved.
func (c *HostedClient) UpdateConfig(cfg config.AIConfig) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	c.tracker.UpdateConfig(cfg.Backoff)
}

// Tracker exposes the client's error tracker for status reporting.
func (c *HostedClient) Tracker() *ErrorTracker {
	return c.tracker
}

func (c *HostedClient) snapshot() config.AIConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func hostedBaseURL(cfg config.HostedConfig) string {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/")
	}
	return defaultHostedBaseURL
}
