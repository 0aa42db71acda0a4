package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/llm"
)

func TestSynthesizeCombinesSections(t *testing.T) {
	reasoner := &fakeLLM{responses: []string{"plan completo"}}
	s := NewSynthesizer(reasoner, zap.NewNop())

	sections := "### get_experiences\ntours\n\n### get_lodging\nhoteles\n"
	out, err := s.Synthesize(context.Background(), "plan para Cancún", sections)
	require.NoError(t, err)
	assert.Equal(t, "plan completo", out)

	require.Len(t, reasoner.requests, 1)
	req := reasoner.requests[0]
	assert.Equal(t, "plan para Cancún", req.Query)
	assert.Equal(t, sections, req.Context["specialist_sections"])
	assert.Contains(t, req.SystemPrompt, "labeled outputs")
}

func TestSynthesizeEmptySections(t *testing.T) {
	reasoner := &fakeLLM{responses: []string{"unused"}}
	s := NewSynthesizer(reasoner, zap.NewNop())

	for _, sections := range []string{"", "   \n\n"} {
		out, err := s.Synthesize(context.Background(), "q", sections)
		require.NoError(t, err)
		assert.Equal(t, noFindingsMessage, out)
	}
	assert.Empty(t, reasoner.requests)
}

func TestSynthesizeReasoningFailure(t *testing.T) {
	reasoner := &fakeLLM{err: llm.ErrReasoningUnavailable}
	s := NewSynthesizer(reasoner, zap.NewNop())

	_, err := s.Synthesize(context.Background(), "q", "### a\nx\n")
	assert.ErrorIs(t, err, llm.ErrReasoningUnavailable)
}
