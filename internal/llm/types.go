package llm

import (
	"context"
	"errors"
)

// ErrReasoningUnavailable wraps transport-level failures talking to the
// reasoning service, including an open circuit breaker.
var ErrReasoningUnavailable = errors.New("reasoning service unavailable")

// CompletionRequest is one reasoning call. Purpose labels the call for
// metrics and for the service's own observability (analyzer, specialist,
// synthesis, extraction).
type CompletionRequest struct {
	Query        string                 `json:"query"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	Context      map[string]interface{} `json:"context,omitempty"`
	Purpose      string                 `json:"agent_id,omitempty"`
	MaxTokens    int                    `json:"max_tokens,omitempty"`
	Temperature  float64                `json:"temperature,omitempty"`
}

// CompletionResponse is the reasoning service's answer
type CompletionResponse struct {
	Response   string                 `json:"response"`
	Metadata   map[string]interface{} `json:"metadata"`
	TokensUsed int                    `json:"tokens_used"`
	ModelUsed  string                 `json:"model_used"`
}

// Client is the reasoning-service interface the orchestrator, specialists,
// and synthesizer depend on. Tests substitute fakes.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
