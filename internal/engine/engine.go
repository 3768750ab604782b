// Package engine implements the reply decision pipeline: enablement,
// random skip, the AI generation path with history recording, ordered
// rule fallback, and reply shaping.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echoreply/echoreply/internal/ai"
	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/conversation"
	"github.com/echoreply/echoreply/internal/memory"
	"github.com/echoreply/echoreply/internal/provider"
	"github.com/echoreply/echoreply/pkg/message"
)

// Outcome labels how a message's handling terminated. Silence is a
// normal outcome, not an error.
type Outcome string

// Terminal outcomes.
const (
	OutcomeReplied  Outcome = "replied"
	OutcomeDisabled Outcome = "disabled"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeNoReply  Outcome = "no_reply"
	OutcomeNoMatch  Outcome = "no_match"
)

// Engine decides whether and how to reply to an incoming message. It
// owns the AI client and the context builder; callers interact with
// those only through the engine. Safe for concurrent HandleMessage
// calls across conversations.
type Engine struct {
	mu    sync.RWMutex
	cfg   config.Config
	rules []rule

	ai      *ai.Client
	builder *conversation.Builder
	logger  *slog.Logger

	rand Source
	now  func() time.Time

	cmu    sync.Mutex
	counts map[Outcome]uint64
}

// New creates an Engine from a full configuration. store may be nil
// when no user memory is available.
func New(cfg config.Config, store memory.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:     cfg,
		rules:   compileRules(cfg.Reply.Rules, logger),
		ai:      ai.New(cfg.AI, logger),
		builder: conversation.NewBuilder(builderConfig(cfg.AI), store, logger),
		logger:  logger,
		rand:    newLockedSource(),
		now:     time.Now,
		counts:  make(map[Outcome]uint64),
	}
}

func builderConfig(cfg config.AIConfig) conversation.Config {
	return conversation.Config{
		SystemPrompt:       cfg.SystemPrompt,
		HistoryEnabled:     cfg.ContextHistoryEnabled,
		MaxContextMessages: cfg.MaxContextMessages,
	}
}

// HandleMessage runs the decision pipeline for one message. A nil
// Outbound means no reply; the Outcome says why.
func (e *Engine) HandleMessage(ctx context.Context, msg *message.Inbound) (*message.Outbound, Outcome) {
	out, outcome := e.handle(ctx, msg)
	e.record(outcome)
	return out, outcome
}

func (e *Engine) handle(ctx context.Context, msg *message.Inbound) (*message.Outbound, Outcome) {
	cfg := e.snapshot()
	if !cfg.Reply.Enabled {
		return nil, OutcomeDisabled
	}

	conv := msg.ConversationKey()

	// One draw per message, ahead of any AI or rule attempt.
	if p := cfg.Reply.RandomSkipProbability; p > 0 && e.rand.Float64() < p {
		e.logger.Debug("randomly skipped", "conversation", conv, "message", msg.ID)
		return nil, OutcomeSkipped
	}

	if cfg.AI.Enabled && e.ai.IsConnected() {
		reply, err := e.generate(ctx, conv, msg)
		switch {
		case err == nil:
			return e.outbound(cfg, conv, msg, reply), OutcomeReplied
		case provider.IsFailure(err):
			// Provider failures are terminal; rules are not a backstop
			// for an unavailable model.
			e.logger.Debug("ai reply unavailable", "conversation", conv, "error", err)
			return nil, OutcomeNoReply
		default:
			e.logger.Error("ai path failed, falling back to rules", "conversation", conv, "error", err)
		}
	}

	if reply, ok := e.matchRules(msg.Text); ok {
		return e.outbound(cfg, conv, msg, reply), OutcomeReplied
	}
	return nil, OutcomeNoMatch
}

// generate asks the provider for a reply and, on success, records both
// sides of the exchange into the conversation history.
func (e *Engine) generate(ctx context.Context, conv string, msg *message.Inbound) (string, error) {
	msgs := e.builder.Context(ctx, conv, msg.Sender, msg.Text)
	reply, err := e.ai.GenerateReply(ctx, msgs)
	if err != nil {
		return "", err
	}
	e.builder.AddMessage(conv, msg.Text, false)
	e.builder.AddMessage(conv, reply, true)
	return reply, nil
}

func (e *Engine) matchRules(text string) (string, bool) {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	for _, r := range rules {
		if r.matches(text) {
			return r.reply, true
		}
	}
	return "", false
}

// outbound mints the reply message with a synthetic id and timestamp,
// truncated to the configured length.
func (e *Engine) outbound(cfg config.Config, conv string, msg *message.Inbound, reply string) *message.Outbound {
	return &message.Outbound{
		ID:             uuid.NewString(),
		ConversationID: conv,
		InReplyTo:      msg.ID,
		Text:           truncateRunes(reply, cfg.Reply.MaxReplyLength),
		Timestamp:      e.now(),
	}
}

// truncateRunes cuts s to at most max runes. No ellipsis, no
// word-boundary awareness. max <= 0 means unlimited.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// UpdateConfig replaces the whole configuration, recompiles the rules,
// and propagates the AI subset to the client and the context builder.
// Effective on the next HandleMessage call.
func (e *Engine) UpdateConfig(cfg config.Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.rules = compileRules(cfg.Reply.Rules, e.logger)
	e.mu.Unlock()

	e.ai.UpdateConfig(cfg.AI)
	e.builder.UpdateConfig(builderConfig(cfg.AI))
}

func (e *Engine) snapshot() config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// AI exposes the provider facade for status reporting and probes.
func (e *Engine) AI() *ai.Client {
	return e.ai
}

// ResetConversation clears the stored history for one conversation.
func (e *Engine) ResetConversation(conversationID string) {
	e.builder.ResetContext(conversationID)
}

func (e *Engine) record(o Outcome) {
	e.cmu.Lock()
	e.counts[o]++
	e.cmu.Unlock()
}

// Counters returns a copy of the per-outcome totals since startup.
func (e *Engine) Counters() map[Outcome]uint64 {
	e.cmu.Lock()
	defer e.cmu.Unlock()
	out := make(map[Outcome]uint64, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}
