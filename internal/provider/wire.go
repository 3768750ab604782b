package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Chat-completions wire types, shared by both provider variants.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Model   string       `json:"model,omitempty"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message ChatMessage `json:"message"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// maxErrorBodySize caps how much of an error response body is read.
const maxErrorBodySize = 4096

// probeTimeout bounds connection-test probes independently of the
// production request timeout.
const probeTimeout = 5 * time.Second

// postChat performs one chat-completions POST and extracts the reply
// text. The caller is responsible for deadline and backoff handling;
// this function classifies failures into the package's sentinel errors.
func postChat(ctx context.Context, hc *http.Client, endpoint, apiKey string, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrHTTP, resp.StatusCode, snippet)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrMalformedResponse, err)
	}

	return extractReply(cr)
}

// extractReply pulls the trimmed assistant text out of a decoded
// response, treating an absent or empty message as malformed.
func extractReply(cr chatResponse) (string, error) {
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	reply := strings.TrimSpace(cr.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty message content", ErrMalformedResponse)
	}
	return reply, nil
}

// classifyTransportError maps an http.Client error to ErrTimeout or
// ErrNetwork. A deadline hit aborts the in-flight call, so the tracker
// bookkeeping stays deterministic: the attempt cannot complete later
// and double-record an outcome.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// probeModels issues a short GET against a /models listing endpoint and
// returns the first advertised model id, if any. Used by TestConnection
// on both variants; deliberately separate from the production path.
func probeModels(ctx context.Context, hc *http.Client, endpoint, apiKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrHTTP, resp.StatusCode, snippet)
	}

	var mr modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrMalformedResponse, err)
	}
	if len(mr.Data) == 0 {
		return "", nil
	}
	return mr.Data[0].ID, nil
}

// sleepCtx suspends cooperatively for d, returning early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
