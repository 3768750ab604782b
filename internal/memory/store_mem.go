package memory

import (
	"context"
	"sync"
	"time"
)

// defaultMaxSnippets bounds per-user snippet retention when the caller
// passes a non-positive limit.
const defaultMaxSnippets = 20

// InMemoryStore is a thread-safe, in-memory implementation of Store.
type InMemoryStore struct {
	mu          sync.RWMutex
	users       map[string]*Record
	maxSnippets int

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewInMemoryStore creates an empty store keeping up to maxSnippets
// snippets per user.
func NewInMemoryStore(maxSnippets int) *InMemoryStore {
	if maxSnippets <= 0 {
		maxSnippets = defaultMaxSnippets
	}
	return &InMemoryStore{
		users:       make(map[string]*Record),
		maxSnippets: maxSnippets,
		now:         time.Now,
	}
}

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

// Lookup returns a copy of the record for a username, or nil.
func (s *InMemoryStore) Lookup(_ context.Context, username string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[username]
	if !ok {
		return nil, nil
	}

	out := *rec
	out.Snippets = make([]Snippet, len(rec.Snippets))
	copy(out.Snippets, rec.Snippets)
	return &out, nil
}

// Remember appends a snippet, trimming retention from the front.
func (s *InMemoryStore) Remember(_ context.Context, username string, snip Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snip.CreatedAt.IsZero() {
		snip.CreatedAt = s.now()
	}

	rec, ok := s.users[username]
	if !ok {
		rec = &Record{Username: username, FirstContact: snip.CreatedAt}
		s.users[username] = rec
	}
	rec.LastContact = snip.CreatedAt
	rec.Snippets = append(rec.Snippets, snip)
	if len(rec.Snippets) > s.maxSnippets {
		rec.Snippets = rec.Snippets[len(rec.Snippets)-s.maxSnippets:]
	}
	return nil
}

// Forget removes a user's record.
func (s *InMemoryStore) Forget(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
	return nil
}
