package provider

import (
	"context"

	"github.com/echoreply/echoreply/internal/config"
)

// Client is the interface for a reply-generating backend.
// Implementations must be safe for concurrent use.
type Client interface {
	// GenerateReply sends the assembled context to the backend and
	// returns the trimmed reply text. Failures are classified by the
	// sentinel errors in this package; every failure except
	// ErrNotConfigured feeds the client's error tracker. Each call
	// performs at most one network attempt.
	GenerateReply(ctx context.Context, messages []ChatMessage) (string, error)

	// TestConnection performs an independent short-timeout probe.
	// It never consults or mutates the error tracker, so a manual test
	// cannot mask or trigger production backoff state.
	TestConnection(ctx context.Context) TestResult

	// IsConnected reports whether the client's configuration is
	// complete enough to attempt requests. No network I/O.
	IsConnected() bool

	// UpdateConfig replaces the client's configuration. Effective on
	// the next call; tracker counters are preserved.
	UpdateConfig(cfg config.AIConfig)
}
