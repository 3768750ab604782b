package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/echoreply/echoreply/internal/memory"
	"github.com/echoreply/echoreply/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBuilder(cfg Config, store memory.Store) *Builder {
	return NewBuilder(cfg, store, testLogger())
}

// failingStore always errors on Lookup.
type failingStore struct{}

func (failingStore) Lookup(context.Context, string) (*memory.Record, error) {
	return nil, errors.New("store offline")
}
func (failingStore) Remember(context.Context, string, memory.Snippet) error { return nil }
func (failingStore) Forget(context.Context, string) error                   { return nil }

func TestBuilder_SystemMessageAlwaysFirst(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "Be friendly.", HistoryEnabled: true, MaxContextMessages: 5}, nil)

	b.AddMessage("c1", "hello", false)
	msgs := b.Context(context.Background(), "c1", "alice", "")

	if len(msgs) == 0 || msgs[0].Role != provider.RoleSystem {
		t.Fatal("first message must be the system message")
	}
	if !strings.Contains(msgs[0].Content, "Be friendly.") {
		t.Errorf("system content = %q, want prompt as substring", msgs[0].Content)
	}
	for _, m := range msgs[1:] {
		if m.Role == provider.RoleSystem {
			t.Error("context must contain exactly one system message")
		}
	}
}

// TestBuilder_WindowProperties drives the builder with randomized
// append sequences and checks the windowing invariants for each.
func TestBuilder_WindowProperties(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		maxCtx := 1 + rng.Intn(8)
		stored := rng.Intn(20)
		b := newTestBuilder(Config{SystemPrompt: "p", HistoryEnabled: true, MaxContextMessages: maxCtx}, nil)

		var want []Entry
		for i := 0; i < stored; i++ {
			e := Entry{Content: fmt.Sprintf("m%d", i), FromBot: rng.Intn(2) == 0}
			b.AddMessage("conv", e.Content, e.FromBot)
			want = append(want, e)
		}

		msgs := b.Context(context.Background(), "conv", "u", "")

		if len(msgs) > 1+maxCtx {
			t.Fatalf("trial %d: len = %d, want <= %d", trial, len(msgs), 1+maxCtx)
		}

		keep := stored
		if keep > maxCtx {
			keep = maxCtx
		}
		if len(msgs)-1 != keep {
			t.Fatalf("trial %d: history entries = %d, want %d", trial, len(msgs)-1, keep)
		}
		tail := want[len(want)-keep:]
		for i, e := range tail {
			got := msgs[1+i]
			if got.Content != e.Content {
				t.Errorf("trial %d: entry %d = %q, want %q (order must be preserved)", trial, i, got.Content, e.Content)
			}
			if got.Role != e.Role() {
				t.Errorf("trial %d: entry %d role = %q, want %q", trial, i, got.Role, e.Role())
			}
		}
	}
}

func TestBuilder_RoleTagging(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "p", HistoryEnabled: true, MaxContextMessages: 10}, nil)

	b.AddMessage("c1", "q1", false)
	b.AddMessage("c1", "a1", true)
	b.AddMessage("c1", "q2", false)

	msgs := b.Context(context.Background(), "c1", "u", "")
	var users, assistants int
	for _, m := range msgs[1:] {
		switch m.Role {
		case provider.RoleUser:
			users++
		case provider.RoleAssistant:
			assistants++
		default:
			t.Errorf("unexpected role %q", m.Role)
		}
	}
	if users != 2 || assistants != 1 {
		t.Errorf("users = %d, assistants = %d; want 2, 1", users, assistants)
	}
}

func TestBuilder_ConversationIsolation(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "p", HistoryEnabled: true, MaxContextMessages: 10}, nil)

	b.AddMessage("c1", "secret", false)
	msgs := b.Context(context.Background(), "c2", "u", "")

	if len(msgs) != 1 {
		t.Errorf("fresh conversation context len = %d, want 1 (system only)", len(msgs))
	}
}

func TestBuilder_ResetEqualsFresh(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "p", HistoryEnabled: true, MaxContextMessages: 10}, nil)

	b.AddMessage("c1", "old", false)
	b.ResetContext("c1")

	msgs := b.Context(context.Background(), "c1", "u", "")
	if len(msgs) != 1 {
		t.Errorf("context after reset len = %d, want 1", len(msgs))
	}
}

func TestBuilder_HistoryDisabled(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "p", HistoryEnabled: false, MaxContextMessages: 10}, nil)
	b.AddMessage("c1", "stored but unused", false)

	with := b.Context(context.Background(), "c1", "u", "current text")
	if len(with) != 2 {
		t.Fatalf("len = %d, want 2 (system + current)", len(with))
	}
	if with[1].Role != provider.RoleUser || with[1].Content != "current text" {
		t.Errorf("second message = %+v, want user:current text", with[1])
	}

	without := b.Context(context.Background(), "c1", "u", "")
	if len(without) != 1 {
		t.Errorf("len = %d, want 1 (system only)", len(without))
	}
}

func TestBuilder_MemoryEnrichment(t *testing.T) {
	t.Parallel()
	store := memory.NewInMemoryStore(10)
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Remember(context.Background(), "alice", memory.Snippet{
		Direction: memory.DirectionThem, Text: "I like hiking", CreatedAt: ts,
	}); err != nil {
		t.Fatal(err)
	}

	b := newTestBuilder(Config{SystemPrompt: "Be friendly.", MaxContextMessages: 5}, store)

	msgs := b.Context(context.Background(), "c1", "alice", "")
	sys := msgs[0].Content
	if !strings.Contains(sys, "Be friendly.") {
		t.Errorf("system content missing prompt: %q", sys)
	}
	if !strings.Contains(sys, "Context about alice") {
		t.Errorf("system content missing memory block: %q", sys)
	}
	if !strings.Contains(sys, "them: I like hiking") {
		t.Errorf("system content missing snippet: %q", sys)
	}

	// Unknown user: the block is silently omitted.
	msgs = b.Context(context.Background(), "c1", "bob", "")
	if strings.Contains(msgs[0].Content, "Context about") {
		t.Errorf("memory block emitted for unknown user: %q", msgs[0].Content)
	}
}

func TestBuilder_MemoryLookupErrorOmitted(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "p"}, failingStore{})

	msgs := b.Context(context.Background(), "c1", "alice", "")
	if msgs[0].Content != "p" {
		t.Errorf("system content = %q, want bare prompt on lookup failure", msgs[0].Content)
	}
}

func TestBuilder_SetSystemPromptImmediate(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "old"}, nil)

	b.SetSystemPrompt("new prompt")
	msgs := b.Context(context.Background(), "c1", "u", "")
	if !strings.Contains(msgs[0].Content, "new prompt") {
		t.Errorf("system content = %q, want new prompt", msgs[0].Content)
	}
}

func TestBuilder_UpdateConfigImmediate(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(Config{SystemPrompt: "p", HistoryEnabled: true, MaxContextMessages: 10}, nil)
	for i := 0; i < 5; i++ {
		b.AddMessage("c1", "m", false)
	}

	b.UpdateConfig(Config{SystemPrompt: "p", HistoryEnabled: true, MaxContextMessages: 2})
	msgs := b.Context(context.Background(), "c1", "u", "")
	if len(msgs) != 3 {
		t.Errorf("len = %d, want 3 after shrinking the window", len(msgs))
	}
}
