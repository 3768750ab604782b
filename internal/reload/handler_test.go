package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/engine"
	"github.com/echoreply/echoreply/internal/ratelimit"
	"github.com/echoreply/echoreply/pkg/message"
)

const validYAML = `
reply:
  enabled: true
  rules:
    - match: "hi"
      reply: "Hello!"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func disabledEngine() *engine.Engine {
	var cfg config.Config
	cfg.Defaults()
	return engine.New(cfg, nil, testLogger())
}

func TestHandler_ReloadAppliesConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, validYAML)
	eng := disabledEngine()

	msg := &message.Inbound{ID: "m1", Sender: "alice", Text: "hi"}
	if _, outcome := eng.HandleMessage(context.Background(), msg); outcome != engine.OutcomeDisabled {
		t.Fatalf("outcome = %q, want disabled before reload", outcome)
	}

	h := NewHandler(path, eng, ratelimit.New(0, 0), testLogger())
	if err := h.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	out, outcome := eng.HandleMessage(context.Background(), msg)
	if outcome != engine.OutcomeReplied || out.Text != "Hello!" {
		t.Errorf("got (%v, %q), want the reloaded rule to reply", out, outcome)
	}
}

func TestHandler_ReloadRejectsBadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "reply: [not: a: mapping")

	h := NewHandler(path, disabledEngine(), nil, testLogger())
	if err := h.Reload(context.Background()); err == nil {
		t.Error("Reload() = nil, want parse error")
	}
}

func TestHandler_ReloadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	// A rule without a reply fails validation.
	path := writeConfig(t, `
reply:
  enabled: true
  rules:
    - match: "hi"
`)

	h := NewHandler(path, disabledEngine(), nil, testLogger())
	if err := h.Reload(context.Background()); err == nil {
		t.Error("Reload() = nil, want validation error")
	}
}

func TestHandler_ReloadMissingFile(t *testing.T) {
	t.Parallel()
	h := NewHandler(filepath.Join(t.TempDir(), "absent.yaml"), disabledEngine(), nil, testLogger())
	if err := h.Reload(context.Background()); err == nil {
		t.Error("Reload() = nil, want read error")
	}
}

func TestHandler_ReloadCancelledContext(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, validYAML)
	h := NewHandler(path, disabledEngine(), nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Reload(ctx); err == nil {
		t.Error("Reload() = nil, want cancellation error")
	}
}
