package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/echoreply/echoreply/internal/config"
)

// LocalClient talks to a locally hosted, OpenAI-compatible model server
// (Ollama, LM Studio, vLLM, llama.cpp server, etc.) over
// http://{endpoint}:{port}/v1.
type LocalClient struct {
	mu      sync.RWMutex
	cfg     config.AIConfig
	tracker *ErrorTracker
	hc      *http.Client
	logger  *slog.Logger

	// sleep is injectable for testing backoff without real delays.
	sleep func(context.Context, time.Duration) error
}

// NewLocalClient creates a client for the local model server.
func NewLocalClient(cfg config.AIConfig, logger *slog.Logger) *LocalClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalClient{
		cfg:     cfg,
		tracker: NewErrorTracker(cfg.Backoff),
		// No global client timeout: the per-request context enforces
		// the hard deadline and aborts the in-flight call.
		hc:     &http.Client{},
		logger: logger.With("provider", "local"),
		sleep:  sleepCtx,
	}
}

// Compile-time interface check.
var _ Client = (*LocalClient)(nil)

// GenerateReply implements Client.
func (c *LocalClient) GenerateReply(ctx context.Context, messages []ChatMessage) (string, error) {
	cfg := c.snapshot()
	if !localConfigured(cfg.Local) {
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
			// No attempt was made, so the tracker is left untouched.
			return "", classifyTransportError(ctx, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	body := chatRequest{
		Model:       cfg.Local.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	reply, err := postChat(callCtx, c.hc, localBaseURL(cfg.Local)+"/chat/completions", "", body)
	if err != nil {
		c.tracker.RecordError()
		c.logger.Warn("generation failed", "error", err)
		return "", err
	}

	c.tracker.RecordSuccess()
	return reply, nil
}

// TestConnection implements Client. It probes the /models endpoint
// under its own short timeout and never touches the error tracker.
func (c *LocalClient) TestConnection(ctx context.Context) TestResult {
	cfg := c.snapshot()
	if !localConfigured(cfg.Local) {
		return TestResult{Err: ErrNotConfigured}
	}

	model, err := probeModels(ctx, c.hc, localBaseURL(cfg.Local)+"/models", "")
	if err != nil {
		return TestResult{Err: err}
	}
	if model == "" {
		model = cfg.Local.Model
	}
	return TestResult{Success: true, ModelName: model}
}

// IsConnected implements Client: the endpoint is non-empty and the
// port is in [1, 65535].
func (c *LocalClient) IsConnected() bool {
	return localConfigured(c.snapshot().Local)
}

// UpdateConfig implements Client. Tracker counters are preserved.
func (c *LocalClient) UpdateConfig(cfg config.AIConfig) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	c.tracker.UpdateConfig(cfg.Backoff)
}

// Tracker exposes the client's error tracker for status reporting.
func (c *LocalClient) Tracker() *ErrorTracker {
	return c.tracker
}

func (c *LocalClient) snapshot() config.AIConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func localConfigured(cfg config.LocalConfig) bool {
	return cfg.Endpoint != "" && cfg.Port >= 1 && cfg.Port <= 65535
}

func localBaseURL(cfg config.LocalConfig) string {
	return fmt.Sprintf("http://%s:%d/v1", cfg.Endpoint, cfg.Port)
}
