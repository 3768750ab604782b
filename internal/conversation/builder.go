package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/echoreply/echoreply/internal/memory"
	"github.com/echoreply/echoreply/internal/provider"
)

// Config holds the builder's tunables. Replaced wholesale on update;
// every Context call reads a fresh snapshot.
type Config struct {
	// SystemPrompt is the base instruction text. Always emitted first.
	SystemPrompt string

	// HistoryEnabled includes windowed stored history in the context.
	HistoryEnabled bool

	// MaxContextMessages caps how many stored entries are included.
	MaxContextMessages int
}

// Builder assembles the bounded message list sent to a provider:
// exactly one system message (prompt plus optional user-memory block)
// followed by either the windowed conversation history or the current
// message text. It owns the per-conversation history exclusively.
type Builder struct {
	mu      sync.RWMutex
	cfg     Config
	history *History
	store   memory.Store // read-only; may be nil
	logger  *slog.Logger
}

// NewBuilder creates a Builder. store may be nil when no user memory
// is available.
func NewBuilder(cfg Config, store memory.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		cfg:     cfg,
		history: NewHistory(),
		store:   store,
		logger:  logger,
	}
}

// Context assembles the message list for one generation request.
// currentText is only injected (as a single user message) when history
// is disabled; with history enabled the caller records the exchange
// via AddMessage after a successful reply.
func (b *Builder) Context(ctx context.Context, conversationID, userID, currentText string) []provider.ChatMessage {
	cfg := b.snapshot()

	msgs := []provider.ChatMessage{{
		Role:    provider.RoleSystem,
		Content: b.systemContent(ctx, cfg.SystemPrompt, userID),
	}}

	if cfg.HistoryEnabled {
		for _, e := range b.history.Recent(conversationID, cfg.MaxContextMessages) {
			msgs = append(msgs, provider.ChatMessage{Role: e.Role(), Content: e.Content})
		}
		return msgs
	}

	if currentText != "" {
		msgs = append(msgs, provider.ChatMessage{Role: provider.RoleUser, Content: currentText})
	}
	return msgs
}

// AddMessage appends one side of an exchange to a conversation's
// stored history. fromBot selects the assistant role at read time.
func (b *Builder) AddMessage(conversationID, content string, fromBot bool) {
	b.history.Append(conversationID, Entry{Content: content, FromBot: fromBot})
}

// ResetContext clears the stored history for a conversation. A
// subsequent Context call behaves like a brand-new conversation.
func (b *Builder) ResetContext(conversationID string) {
	b.history.Reset(conversationID)
}

// HistoryLen returns the number of stored entries for a conversation.
func (b *Builder) HistoryLen(conversationID string) int {
	return b.history.Len(conversationID)
}

// SetSystemPrompt replaces the active prompt. Effective immediately
// for all subsequent Context calls, every conversation alike.
func (b *Builder) SetSystemPrompt(prompt string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.SystemPrompt = prompt
}

// UpdateConfig replaces all tunables at once.
func (b *Builder) UpdateConfig(cfg Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg
}

func (b *Builder) snapshot() Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg
}

// systemContent returns the system prompt, enriched with a
// user-memory block when a record exists. Absence of memory is not an
// error; lookup failures are logged and the block is omitted.
func (b *Builder) systemContent(ctx context.Context, prompt, userID string) string {
	if b.store == nil || userID == "" {
		return prompt
	}

	rec, err := b.store.Lookup(ctx, userID)
	if err != nil {
		b.logger.Warn("user memory lookup failed", "user", userID, "error", err)
		return prompt
	}
	if rec == nil {
		return prompt
	}

	return prompt + "\n\n" + formatMemory(rec)
}

// formatMemory renders a memory record as a prompt section.
func formatMemory(rec *memory.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Context about %s:", rec.Username)
	if !rec.FirstContact.IsZero() {
		fmt.Fprintf(&sb, " known since %s,", rec.FirstContact.Format("2006-01-02"))
	}
	if !rec.LastContact.IsZero() {
		fmt.Fprintf(&sb, " last contact %s.", rec.LastContact.Format("2006-01-02"))
	}
	if len(rec.Snippets) > 0 {
		sb.WriteString("\nRecent messages:")
		for _, snip := range rec.Snippets {
			fmt.Fprintf(&sb, "\n%s: %s", snip.Direction, snip.Text)
		}
	}
	return sb.String()
}
