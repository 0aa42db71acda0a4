package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONResponseStrict(t *testing.T) {
	var out struct {
		ShouldParallelize bool     `json:"should_parallelize"`
		Domains           []string `json:"domains"`
	}
	err := DecodeJSONResponse(`{"should_parallelize": true, "domains": ["lodging"]}`, &out)
	require.NoError(t, err)
	assert.True(t, out.ShouldParallelize)
	assert.Equal(t, []string{"lodging"}, out.Domains)
}

func TestDecodeJSONResponseFenced(t *testing.T) {
	var out map[string]interface{}
	err := DecodeJSONResponse("```json\n{\"complexity\": \"high\"}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "high", out["complexity"])
}

func TestDecodeJSONResponseEmbedded(t *testing.T) {
	var out map[string]interface{}
	response := `Here is my analysis: {"should_parallelize": false} hope that helps`
	err := DecodeJSONResponse(response, &out)
	require.NoError(t, err)
	assert.Equal(t, false, out["should_parallelize"])
}

func TestDecodeJSONResponseNoObject(t *testing.T) {
	var out map[string]interface{}
	err := DecodeJSONResponse("no structure here", &out)
	assert.Error(t, err)
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"nested", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"a":"}"}`, `{"a":"}"}`, true},
		{"escaped quote", `{"a":"\"}"}`, `{"a":"\"}"}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"none", "plain text", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tt.in)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
