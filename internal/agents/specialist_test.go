package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/llm"
	"github.com/rutopia/productobot/internal/retrieval"
	"github.com/rutopia/productobot/internal/vectordb"
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

// fakeRetriever returns a scripted answer and records queries.
type fakeRetriever struct {
	answer  retrieval.Answer
	err     error
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ domain.Tag) (retrieval.Answer, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return retrieval.Answer{}, f.err
	}
	return f.answer, nil
}

func exactAnswer(formatted string) retrieval.Answer {
	return retrieval.Answer{
		Formatted: formatted,
		Records:   []vectordb.Record{{ID: "r1"}},
		MatchType: retrieval.MatchFullFilter,
	}
}

func TestKnowledgeSpecialistPhrasesResults(t *testing.T) {
	ret := &fakeRetriever{answer: exactAnswer("*Hotel Azul*\n• Oaxaca")}
	reasoner := &fakeLLM{responses: []string{"Te recomiendo el *Hotel Azul* en Oaxaca."}}
	sp := NewLodgingSpecialist(ret, reasoner, zap.NewNop())

	view := ContextView{History: "user: hola", DisplayName: "Ana"}
	out, err := sp.Answer(context.Background(), "hotel en Oaxaca", &view)
	require.NoError(t, err)
	assert.Equal(t, "Te recomiendo el *Hotel Azul* en Oaxaca.", out)
	assert.Equal(t, []string{"hotel en Oaxaca"}, ret.queries)
	assert.Equal(t, "hotel en Oaxaca", view.ProcessedQuery)

	require.Len(t, reasoner.requests, 1)
	req := reasoner.requests[0]
	assert.Equal(t, "get_lodging", req.Purpose)
	assert.Contains(t, req.SystemPrompt, "lodging agent")
	assert.Equal(t, "*Hotel Azul*\n• Oaxaca", req.Context["knowledge_base_results"])
	assert.Equal(t, "user: hola", req.Context["conversation_history"])
	assert.Equal(t, "Ana", req.Context["user_name"])
}

func TestKnowledgeSpecialistNearbyAlternatives(t *testing.T) {
	ret := &fakeRetriever{answer: retrieval.Answer{
		Formatted: "*Tour X*",
		Records:   []vectordb.Record{{ID: "r1"}},
		MatchType: retrieval.MatchNoState,
	}}
	reasoner := &fakeLLM{responses: []string{"respuesta"}}
	sp := NewExperiencesSpecialist(ret, reasoner, zap.NewNop())

	view := ContextView{}
	_, err := sp.Answer(context.Background(), "tour", &view)
	require.NoError(t, err)

	results, _ := reasoner.requests[0].Context["knowledge_base_results"].(string)
	assert.Contains(t, results, "No encontré experiencias en la ubicación exacta pero te dejo algunas opciones cercanas:")
	assert.Contains(t, results, "*Tour X*")
}

func TestKnowledgeSpecialistExactStateMatchNotRephrased(t *testing.T) {
	ret := &fakeRetriever{answer: retrieval.Answer{
		Formatted: "*Transfer*",
		Records:   []vectordb.Record{{ID: "r1"}},
		MatchType: retrieval.MatchStateOnly,
	}}
	reasoner := &fakeLLM{responses: []string{"respuesta"}}
	sp := NewTransportationSpecialist(ret, reasoner, zap.NewNop())

	_, err := sp.Answer(context.Background(), "transfer en Cancún", &ContextView{})
	require.NoError(t, err)

	results, _ := reasoner.requests[0].Context["knowledge_base_results"].(string)
	assert.NotContains(t, results, "opciones cercanas")
}

func TestKnowledgeSpecialistSearchFailureIsUserMessage(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("embedding service down")}
	reasoner := &fakeLLM{responses: []string{"unused"}}
	sp := NewExperiencesSpecialist(ret, reasoner, zap.NewNop())

	view := ContextView{}
	out, err := sp.Answer(context.Background(), "kayak en Chiapas", &view)
	require.NoError(t, err)
	assert.Contains(t, out, "Lo siento, tuve un problema buscando experiencias para 'kayak en Chiapas'")
	assert.Empty(t, reasoner.requests)
	assert.Empty(t, view.ProcessedQuery)
}

func TestKnowledgeSpecialistEmptyResults(t *testing.T) {
	ret := &fakeRetriever{answer: retrieval.Answer{MatchType: retrieval.MatchNoState}}
	reasoner := &fakeLLM{responses: []string{"unused"}}
	sp := NewLodgingSpecialist(ret, reasoner, zap.NewNop())

	out, err := sp.Answer(context.Background(), "castillo flotante", &ContextView{})
	require.NoError(t, err)
	assert.Equal(t, "No encontré alojamientos para esa búsqueda.", out)
	assert.Empty(t, reasoner.requests)
}

func TestKnowledgeSpecialistReasoningFailureIsError(t *testing.T) {
	ret := &fakeRetriever{answer: exactAnswer("*Hotel*")}
	reasoner := &fakeLLM{err: llm.ErrReasoningUnavailable}
	sp := NewLodgingSpecialist(ret, reasoner, zap.NewNop())

	_, err := sp.Answer(context.Background(), "hotel", &ContextView{})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrReasoningUnavailable)
}

func TestSpecialistNamesAndDescriptions(t *testing.T) {
	ret := &fakeRetriever{}
	reasoner := &fakeLLM{responses: []string{"x"}}

	assert.Equal(t, "get_experiences", NewExperiencesSpecialist(ret, reasoner, zap.NewNop()).Name())
	assert.Equal(t, "get_lodging", NewLodgingSpecialist(ret, reasoner, zap.NewNop()).Name())
	assert.Equal(t, "get_transportation", NewTransportationSpecialist(ret, reasoner, zap.NewNop()).Name())
	assert.NotEmpty(t, NewLodgingSpecialist(ret, reasoner, zap.NewNop()).Description())
}
