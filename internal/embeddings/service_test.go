package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmbeddingUsesLRU(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float64{{0.1, 0.2, 0.3}},
			Dimensions: 3,
		})
	}))
	defer srv.Close()

	s := NewService(Config{BaseURL: srv.URL}, nil)
	ctx := context.Background()

	v1, err := s.GenerateEmbedding(ctx, "cabañas en Chiapas", "")
	require.NoError(t, err)
	require.Len(t, v1, 3)

	v2, err := s.GenerateEmbedding(ctx, "cabañas en Chiapas", "")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateEmbeddingServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewService(Config{BaseURL: srv.URL}, nil)
	_, err := s.GenerateEmbedding(context.Background(), "texto", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestGenerateBatchEmbeddingsPartialCache(t *testing.T) {
	var lastBatch []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		lastBatch = req.Texts
		vecs := make([][]float64, len(req.Texts))
		for i := range vecs {
			vecs[i] = []float64{float64(i), 1}
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: vecs})
	}))
	defer srv.Close()

	s := NewService(Config{BaseURL: srv.URL}, nil)
	ctx := context.Background()

	_, err := s.GenerateEmbedding(ctx, "uno", "")
	require.NoError(t, err)

	out, err := s.GenerateBatchEmbeddings(ctx, []string{"uno", "dos"}, "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	// Only the uncached text goes over the wire
	assert.Equal(t, []string{"dos"}, lastBatch)
}

func TestLocalLRUEviction(t *testing.T) {
	lru := NewLocalLRU(2)
	ctx := context.Background()

	lru.Set(ctx, "a", []float32{1}, time.Minute)
	lru.Set(ctx, "b", []float32{2}, time.Minute)
	lru.Set(ctx, "c", []float32{3}, time.Minute)

	_, ok := lru.Get(ctx, "a")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = lru.Get(ctx, "c")
	assert.True(t, ok)
}

func TestLocalLRUExpiry(t *testing.T) {
	lru := NewLocalLRU(4)
	ctx := context.Background()

	lru.Set(ctx, "k", []float32{1}, -time.Second)
	_, ok := lru.Get(ctx, "k")
	assert.False(t, ok)
}

func TestUninitializedService(t *testing.T) {
	var s *Service
	_, err := s.GenerateEmbedding(context.Background(), "hello", "")
	assert.Error(t, err)
}
