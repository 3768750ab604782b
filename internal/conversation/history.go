// Package conversation maintains per-conversation message history and
// assembles the bounded, role-tagged context sent to a provider.
package conversation

import (
	"sync"

	"github.com/echoreply/echoreply/internal/provider"
)

// Entry is one stored history item: what was said and by whom.
type Entry struct {
	Content string
	FromBot bool
}

// Role returns the context role for the entry.
func (e Entry) Role() provider.Role {
	if e.FromBot {
		return provider.RoleAssistant
	}
	return provider.RoleUser
}

// History is a thread-safe, append-only store of per-conversation
// entries, sharded by conversation id. Storage is unbounded; windowing
// happens only at read time. Conversations are created lazily and
// cleared only by an explicit Reset.
type History struct {
	mu            sync.RWMutex
	conversations map[string][]Entry
}

// NewHistory creates an empty history store.
func NewHistory() *History {
	return &History{
		conversations: make(map[string][]Entry),
	}
}

// Append adds an entry to a conversation's history.
func (h *History) Append(conversationID string, e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conversations[conversationID] = append(h.conversations[conversationID], e)
}

// Recent returns the n most recent entries for a conversation in
// original order (oldest first). If fewer than n exist, all are
// returned. The result is a copy.
func (h *History) Recent(conversationID string, n int) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := h.conversations[conversationID]
	if len(entries) == 0 || n <= 0 {
		return nil
	}

	if n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[len(entries)-n:])
	return out
}

// Len returns the number of entries stored for a conversation.
func (h *History) Len(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conversations[conversationID])
}

// Conversations returns the number of distinct conversations stored.
func (h *History) Conversations() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conversations)
}

// Reset clears all stored history for a conversation.
func (h *History) Reset(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conversations, conversationID)
}
