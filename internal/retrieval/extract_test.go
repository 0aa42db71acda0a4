package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/llm"
)

// fakeLLM returns canned responses and records the requests it saw.
type fakeLLM struct {
	responses []string
	err       error
	requests  []llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &llm.CompletionResponse{Response: resp}, nil
}

func TestExtractDecodesNarrative(t *testing.T) {
	fake := &fakeLLM{responses: []string{"```json\n" +
		`{"Name": "Hotel Azul", "Location": "Oaxaca", "Price_Range": "comfort", "State_Code": "OAX"}` +
		"\n```"}}
	ex := NewExtractor(fake, zap.NewNop())

	n, err := ex.Extract(context.Background(), "hotel boutique en Oaxaca", domain.TagLodging)
	require.NoError(t, err)
	assert.Equal(t, "Hotel Azul", n.Name)
	assert.Equal(t, "comfort", n.PriceRange)
	assert.Equal(t, "OAX", n.StateCode)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "extraction", req.Purpose)
	assert.Equal(t, extractMaxTokens, req.MaxTokens)
	assert.Contains(t, req.SystemPrompt, "lodging")
	assert.Contains(t, req.SystemPrompt, "leave the field blank")
}

func TestExtractSanitizesClosedSets(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"Name": "X", "Price_Range": "cheap", "State_Code": "ABC"}`,
	}}
	ex := NewExtractor(fake, zap.NewNop())

	n, err := ex.Extract(context.Background(), "algo barato", domain.TagLodging)
	require.NoError(t, err)
	assert.Empty(t, n.PriceRange, "out-of-set price tier must not constrain the search")
	assert.Empty(t, n.StateCode, "out-of-set region code must not constrain the search")
	assert.Equal(t, "X", n.Name)
}

func TestExtractNormalizesCase(t *testing.T) {
	fake := &fakeLLM{responses: []string{`{"Price_Range": "Comfort", "State_Code": "oax"}`}}
	ex := NewExtractor(fake, zap.NewNop())

	n, err := ex.Extract(context.Background(), "q", domain.TagExperiences)
	require.NoError(t, err)
	assert.Equal(t, "comfort", n.PriceRange)
	assert.Equal(t, "OAX", n.StateCode)
}

func TestExtractPerDomainPrompts(t *testing.T) {
	for _, tc := range []struct {
		tag  domain.Tag
		want string
	}{
		{domain.TagLodging, "lodging search"},
		{domain.TagExperiences, "tourism experiences search"},
		{domain.TagTransportation, "transport search"},
		{domain.TagDatabase, "tourism experiences search"},
	} {
		fake := &fakeLLM{responses: []string{`{}`}}
		ex := NewExtractor(fake, zap.NewNop())
		_, err := ex.Extract(context.Background(), "q", tc.tag)
		require.NoError(t, err)
		assert.Contains(t, fake.requests[0].SystemPrompt, tc.want)
	}
}

func TestExtractPropagatesReasoningError(t *testing.T) {
	fake := &fakeLLM{err: llm.ErrReasoningUnavailable}
	ex := NewExtractor(fake, zap.NewNop())

	_, err := ex.Extract(context.Background(), "q", domain.TagLodging)
	assert.True(t, errors.Is(err, llm.ErrReasoningUnavailable))
}

func TestExtractRejectsUndecodableResponse(t *testing.T) {
	fake := &fakeLLM{responses: []string{"no structured data here"}}
	ex := NewExtractor(fake, zap.NewNop())

	_, err := ex.Extract(context.Background(), "q", domain.TagLodging)
	assert.Error(t, err)
}
