package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/llm"
	"github.com/rutopia/productobot/internal/metrics"
)

const (
	synthesisMaxTokens   = 1600
	synthesisTemperature = 0.3

	// noFindingsMessage is returned when every specialist came back empty
	// or failed, so there is nothing to synthesize.
	noFindingsMessage = "No encontré información específica para tu consulta. ¿Podrías darme más detalles sobre lo que buscas?"
)

// Synthesizer combines the labeled specialist sections into the final
// reply with a single reasoning call.
type Synthesizer struct {
	llm    llm.Client
	logger *zap.Logger
}

// NewSynthesizer creates a meta-synthesizer over the reasoning client.
func NewSynthesizer(client llm.Client, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{llm: client, logger: logger}
}

// Synthesize merges the "### <specialist>" sections into one answer to the
// original query. An empty section set short-circuits to a user-facing
// no-findings message without a reasoning call.
func (s *Synthesizer) Synthesize(ctx context.Context, query, sections string) (string, error) {
	if strings.TrimSpace(sections) == "" {
		return noFindingsMessage, nil
	}

	start := time.Now()
	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Query:        query,
		SystemPrompt: synthesisInstructions,
		Context: map[string]interface{}{
			"specialist_sections": sections,
		},
		Purpose:     "synthesis",
		MaxTokens:   synthesisMaxTokens,
		Temperature: synthesisTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize specialist sections: %w", err)
	}
	metrics.SynthesisLatency.Observe(time.Since(start).Seconds())

	s.logger.Debug("Synthesis completed",
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Response, nil
}
