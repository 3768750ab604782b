// Package message defines the platform-agnostic data contract between the
// messaging surfaces (scrapers, bridges) and the reply decision engine.
package message

import "time"

// Inbound represents a message received from a messaging surface.
type Inbound struct {
	ID             string    `json:"id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Platform       string    `json:"platform,omitempty"`
}

// ConversationKey returns the identifier under which this message's
// history is grouped: the explicit conversation id when present,
// otherwise the sender.
func (m *Inbound) ConversationKey() string {
	if m.ConversationID != "" {
		return m.ConversationID
	}
	return m.Sender
}

// Outbound represents a reply produced by the engine. The ID and
// Timestamp are synthetic: the engine mints them when it decides to reply.
type Outbound struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	InReplyTo      string    `json:"in_reply_to,omitempty"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}
