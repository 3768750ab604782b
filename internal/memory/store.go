// Package memory provides the persisted user-notes store: per-correspondent
// message snippets and contact timestamps used to enrich the system prompt.
// The store is read-only to the decision engine; writes come from the
// collaborators that observe conversations.
package memory

import (
	"context"
	"time"
)

// Direction tells who authored a remembered snippet.
type Direction string

// Snippet directions.
const (
	// DirectionThem marks a snippet written by the correspondent.
	DirectionThem Direction = "them"
	// DirectionMe marks a snippet written by the bot.
	DirectionMe Direction = "me"
)

// Snippet is one remembered message fragment.
type Snippet struct {
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Record holds everything remembered about one correspondent.
type Record struct {
	Username     string    `json:"username"`
	FirstContact time.Time `json:"first_contact"`
	LastContact  time.Time `json:"last_contact"`
	Snippets     []Snippet `json:"snippets"`
}

// Store manages per-user memory records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Lookup returns the record for a username, or nil if the user is
	// unknown. An unknown user is not an error.
	Lookup(ctx context.Context, username string) (*Record, error)

	// Remember appends a snippet for a username, creating the record
	// on first contact and advancing LastContact. Implementations keep
	// only the most recent snippets per user.
	Remember(ctx context.Context, username string, s Snippet) error

	// Forget removes everything remembered about a username.
	Forget(ctx context.Context, username string) error
}
