package mia

import "time"

// Conversation is the append-only log of displayed messages for one session.
type Conversation struct {
	ID        string
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversation creates an empty conversation with the given session ID.
func NewConversation(id string) *Conversation {
	now := time.Now()
	return &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Append adds a displayed message to the log.
func (c *Conversation) Append(msg ChatMessage) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}
