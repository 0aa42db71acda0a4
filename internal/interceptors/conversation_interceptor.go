package interceptors

import (
	"context"
	"net/http"
)

type contextKey string

const (
	conversationIDKey contextKey = "conversation_id"
	turnIDKey         contextKey = "turn_id"
)

// WithConversationID attaches a conversation identifier to the context so
// outbound HTTP calls can carry it for cross-service correlation.
func WithConversationID(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, conversationIDKey, conversationID)
}

// WithTurnID attaches the identifier of the current chat turn to the context.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, turnIDKey, turnID)
}

// ConversationIDFromContext returns the conversation ID stored in ctx, if any.
func ConversationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(conversationIDKey).(string); ok {
		return v
	}
	return ""
}

// TurnIDFromContext returns the turn ID stored in ctx, if any.
func TurnIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(turnIDKey).(string); ok {
		return v
	}
	return ""
}

// ConversationHTTPRoundTripper adds conversation metadata to outgoing HTTP requests
type ConversationHTTPRoundTripper struct {
	base http.RoundTripper
}

// NewConversationHTTPRoundTripper creates an HTTP interceptor that adds conversation metadata
func NewConversationHTTPRoundTripper(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &ConversationHTTPRoundTripper{base: base}
}

// RoundTrip implements http.RoundTripper and injects conversation headers
func (c *ConversationHTTPRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if conversationID := ConversationIDFromContext(req.Context()); conversationID != "" {
		req.Header.Set("X-Conversation-ID", conversationID)
	}
	if turnID := TurnIDFromContext(req.Context()); turnID != "" {
		req.Header.Set("X-Turn-ID", turnID)
	}

	return c.base.RoundTrip(req)
}
