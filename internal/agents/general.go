package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/llm"
)

const (
	// maxToolIterations bounds the general agent's reasoning loop.
	maxToolIterations = 4

	generalMaxTokens   = 1600
	generalTemperature = 0.4
)

// toolCall is the action the reasoning model emits when it wants a tool.
// Any response that does not parse as a known tool call is treated as the
// final answer.
type toolCall struct {
	Tool  string `json:"tool"`
	Input string `json:"input"`
}

// General is the single conversational agent used on the sequential path.
// It runs a bounded reasoning loop: each iteration the model either calls
// one of the specialist tools or produces the final answer.
type General struct {
	llm    llm.Client
	tools  []Specialist
	byName map[string]Specialist
	logger *zap.Logger
}

// NewGeneral creates the sequential agent over the given tool set.
func NewGeneral(client llm.Client, tools []Specialist, logger *zap.Logger) *General {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Specialist, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &General{llm: client, tools: tools, byName: byName, logger: logger}
}

// Respond answers the query, calling tools as the model requests them.
// Derived context writes from tool calls land on the caller's view.
func (g *General) Respond(ctx context.Context, query string, view *ContextView) (string, error) {
	observations := make([]string, 0, maxToolIterations)

	for i := 0; i < maxToolIterations; i++ {
		resp, err := g.llm.Complete(ctx, llm.CompletionRequest{
			Query:        query,
			SystemPrompt: g.systemPrompt(i == maxToolIterations-1),
			Context:      g.callContext(view, observations),
			Purpose:      "general_agent",
			MaxTokens:    generalMaxTokens,
			Temperature:  generalTemperature,
		})
		if err != nil {
			return "", fmt.Errorf("general agent: %w", err)
		}

		call, ok := g.parseToolCall(resp.Response)
		if !ok {
			return resp.Response, nil
		}

		tool := g.byName[call.Tool]
		g.logger.Debug("General agent calling tool",
			zap.String("tool", call.Tool),
			zap.Int("iteration", i),
		)
		output, err := tool.Answer(ctx, call.Input, view)
		if err != nil {
			g.logger.Warn("Tool call failed",
				zap.String("tool", call.Tool),
				zap.Error(err),
			)
			output = fmt.Sprintf("The %s tool is unavailable right now.", call.Tool)
		}
		observations = append(observations, fmt.Sprintf("### %s(%s)\n%s", call.Tool, call.Input, output))
	}

	// Iteration budget spent on tool calls; ask for a final answer from
	// what was gathered.
	resp, err := g.llm.Complete(ctx, llm.CompletionRequest{
		Query:        query,
		SystemPrompt: g.systemPrompt(true),
		Context:      g.callContext(view, observations),
		Purpose:      "general_agent",
		MaxTokens:    generalMaxTokens,
		Temperature:  generalTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("general agent: %w", err)
	}
	return resp.Response, nil
}

func (g *General) systemPrompt(finalPass bool) string {
	var b strings.Builder
	b.WriteString(generalInstructions)
	b.WriteString("\n\n# Tools\n")
	for _, t := range g.tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	if finalPass {
		b.WriteString("\nAnswer the user directly from the tool results gathered so far. Do not call any more tools.")
	} else {
		b.WriteString(`
To call a tool, reply with ONLY a JSON object: {"tool": "<name>", "input": "<what to search for>"}.
To answer the user directly, reply with the answer text and no JSON object.
Tool results from this conversation turn appear in the tool_results context.`)
	}
	return b.String()
}

func (g *General) callContext(view *ContextView, observations []string) map[string]interface{} {
	c := map[string]interface{}{
		"conversation_history": view.History,
		"user_name":            view.DisplayName,
	}
	if len(observations) > 0 {
		c["tool_results"] = strings.Join(observations, "\n\n")
	}
	return c
}

// parseToolCall interprets the model response as a tool call. Responses
// without a recognizable call for a known tool are final answers.
func (g *General) parseToolCall(response string) (toolCall, bool) {
	var call toolCall
	if err := llm.DecodeJSONResponse(response, &call); err != nil {
		return toolCall{}, false
	}
	if call.Tool == "" {
		return toolCall{}, false
	}
	if _, known := g.byName[call.Tool]; !known {
		g.logger.Warn("Model requested unknown tool", zap.String("tool", call.Tool))
		return toolCall{}, false
	}
	return call, true
}
