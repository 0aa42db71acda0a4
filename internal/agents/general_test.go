package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recordingTool(name, output string) (*[]string, Specialist) {
	inputs := &[]string{}
	return inputs, &stubSpecialist{name: name, fn: func(_ context.Context, query string, view *ContextView) (string, error) {
		*inputs = append(*inputs, query)
		view.ProcessedQuery = query
		return output, nil
	}}
}

func TestGeneralDirectAnswer(t *testing.T) {
	reasoner := &fakeLLM{responses: []string{"Hola, ¿en qué te ayudo?"}}
	_, tool := recordingTool("get_lodging", "unused")
	g := NewGeneral(reasoner, []Specialist{tool}, zap.NewNop())

	out, err := g.Respond(context.Background(), "hola", &ContextView{DisplayName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿en qué te ayudo?", out)
	require.Len(t, reasoner.requests, 1)
	assert.Equal(t, "general_agent", reasoner.requests[0].Purpose)
	assert.Contains(t, reasoner.requests[0].SystemPrompt, "- get_lodging:")
	assert.Equal(t, "Ana", reasoner.requests[0].Context["user_name"])
}

func TestGeneralToolLoop(t *testing.T) {
	reasoner := &fakeLLM{responses: []string{
		`{"tool": "get_lodging", "input": "hoteles en Oaxaca"}`,
		"Te recomiendo el *Hotel Azul*.",
	}}
	inputs, tool := recordingTool("get_lodging", "*Hotel Azul* en Oaxaca")
	g := NewGeneral(reasoner, []Specialist{tool}, zap.NewNop())

	view := ContextView{}
	out, err := g.Respond(context.Background(), "busco hotel en Oaxaca", &view)
	require.NoError(t, err)
	assert.Equal(t, "Te recomiendo el *Hotel Azul*.", out)
	assert.Equal(t, []string{"hoteles en Oaxaca"}, *inputs)
	assert.Equal(t, "hoteles en Oaxaca", view.ProcessedQuery)

	require.Len(t, reasoner.requests, 2)
	results, _ := reasoner.requests[1].Context["tool_results"].(string)
	assert.Contains(t, results, "### get_lodging(hoteles en Oaxaca)")
	assert.Contains(t, results, "*Hotel Azul* en Oaxaca")
}

func TestGeneralUnknownToolIsFinalAnswer(t *testing.T) {
	reasoner := &fakeLLM{responses: []string{`{"tool": "get_weather", "input": "Cancún"}`}}
	_, tool := recordingTool("get_lodging", "unused")
	g := NewGeneral(reasoner, []Specialist{tool}, zap.NewNop())

	out, err := g.Respond(context.Background(), "clima", &ContextView{})
	require.NoError(t, err)
	assert.Contains(t, out, "get_weather")
	require.Len(t, reasoner.requests, 1)
}

func TestGeneralBoundedIterations(t *testing.T) {
	// The model keeps asking for tools; the loop must stop and force a
	// final answer.
	responses := make([]string, 0, maxToolIterations+1)
	for i := 0; i < maxToolIterations; i++ {
		responses = append(responses, `{"tool": "get_experiences", "input": "más tours"}`)
	}
	responses = append(responses, "respuesta final")
	reasoner := &fakeLLM{responses: responses}
	inputs, tool := recordingTool("get_experiences", "tours")
	g := NewGeneral(reasoner, []Specialist{tool}, zap.NewNop())

	out, err := g.Respond(context.Background(), "q", &ContextView{})
	require.NoError(t, err)
	assert.Equal(t, "respuesta final", out)
	assert.Len(t, *inputs, maxToolIterations)
	require.Len(t, reasoner.requests, maxToolIterations+1)

	last := reasoner.requests[maxToolIterations]
	assert.Contains(t, last.SystemPrompt, "Do not call any more tools")
}

func TestGeneralToolFailureBecomesObservation(t *testing.T) {
	reasoner := &fakeLLM{responses: []string{
		`{"tool": "query_structured_data", "input": "proveedores"}`,
		"no pude consultar la base",
	}}
	failing := &stubSpecialist{name: "query_structured_data", fn: func(_ context.Context, _ string, _ *ContextView) (string, error) {
		return "", assert.AnError
	}}
	g := NewGeneral(reasoner, []Specialist{failing}, zap.NewNop())

	out, err := g.Respond(context.Background(), "cuántos proveedores hay", &ContextView{})
	require.NoError(t, err)
	assert.Equal(t, "no pude consultar la base", out)

	results, _ := reasoner.requests[1].Context["tool_results"].(string)
	assert.Contains(t, results, "unavailable right now")
}
