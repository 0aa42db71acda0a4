// Package session keeps per-conversation state: the message history a
// reasoning call sees, the agent that served the previous turn, and the
// identity key that groups chat-platform events into one conversation.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrConversationNotFound is returned when no conversation exists for
	// an identity.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationExpired is returned when a conversation outlived its TTL.
	ErrConversationExpired = errors.New("conversation expired")
)

// DefaultIdentityKey groups events that carry no channel or thread.
const DefaultIdentityKey = "default"

// MaxHistoryMessages caps stored history per conversation; older messages
// are dropped oldest-first.
const MaxHistoryMessages = 100

// Identity names one conversation: a chat channel plus the thread within
// it. Both blank means the caller has no threading context.
type Identity struct {
	Channel string
	Thread  string
}

// Key returns the storage key for the identity.
func (id Identity) Key() string {
	if id.Channel == "" && id.Thread == "" {
		return DefaultIdentityKey
	}
	return fmt.Sprintf("%s_%s", id.Channel, id.Thread)
}

// Conversation is the stored state of one chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Thread    string    `json:"thread"`
	History   []Message `json:"history"`
	LastAgent string    `json:"last_agent"`
	FirstSeen time.Time `json:"first_seen"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// clone returns an independent copy. The store hands clones to callers so
// a mutated conversation never aliases the local cache before Update.
func (c *Conversation) clone() *Conversation {
	cp := *c
	cp.History = make([]Message, len(c.History))
	copy(cp.History, c.History)
	return &cp
}

// Message is one history entry.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsExpired reports whether the conversation outlived its TTL.
func (c *Conversation) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsFirstInteraction reports whether no assistant turn has been recorded
// yet; the first turn gets a greeting prefix in sequential mode.
func (c *Conversation) IsFirstInteraction() bool {
	for _, m := range c.History {
		if m.Role == "assistant" {
			return false
		}
	}
	return true
}

// Append adds a message and trims history to MaxHistoryMessages.
func (c *Conversation) Append(msg Message) {
	c.History = append(c.History, msg)
	if len(c.History) > MaxHistoryMessages {
		c.History = c.History[len(c.History)-MaxHistoryMessages:]
	}
	c.UpdatedAt = time.Now()
}

// RecentHistory returns up to count most recent messages.
func (c *Conversation) RecentHistory(count int) []Message {
	if count <= 0 || len(c.History) <= count {
		return c.History
	}
	return c.History[len(c.History)-count:]
}

// HistoryText renders the history as role-prefixed lines for inclusion in
// a reasoning prompt.
func (c *Conversation) HistoryText(count int) string {
	msgs := c.RecentHistory(count)
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
