package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/embeddings"
	"github.com/rutopia/productobot/internal/vectordb"
)

type upsertCapture struct {
	Path   string
	Points []struct {
		ID      string                 `json:"id"`
		Vector  []float32              `json:"vector"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"points"`
}

func newTestLoader(t *testing.T, qdrant http.HandlerFunc) (*Loader, func()) {
	t.Helper()
	embedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float64{{0.1, 0.2}},
			"dimensions": 2,
			"model_used": "jina-clip-v2",
		})
	}))
	qdrantSrv := httptest.NewServer(qdrant)

	embedder := embeddings.NewService(embeddings.Config{BaseURL: embedSrv.URL}, nil)

	u, err := url.Parse(qdrantSrv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	indexer := vectordb.NewClient(vectordb.Config{Enabled: true, Host: u.Hostname(), Port: port}, zap.NewNop())

	cleanup := func() {
		embedSrv.Close()
		qdrantSrv.Close()
	}
	return NewLoader(embedder, indexer, zap.NewNop()), cleanup
}

func TestLoadEmbedsAndIndexes(t *testing.T) {
	var captured []upsertCapture
	loader, cleanup := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		var got upsertCapture
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		got.Path = r.URL.Path
		captured = append(captured, got)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "time": 0.01})
	})
	defer cleanup()

	loaded, err := loader.Load(context.Background(), []Record{
		{Domain: "lodging", Text: "cabaña frente al mar en Tulum", Payload: map[string]interface{}{"name": "Casa Azul"}},
		{Domain: "experiences", Text: "tour de buceo en Cozumel", Payload: map[string]interface{}{"name": "Buceo Coral"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	require.Len(t, captured, 2)
	assert.Equal(t, "/collections/lodging/points", captured[0].Path)
	assert.Equal(t, "/collections/experiences/points", captured[1].Path)
	for _, got := range captured {
		require.Len(t, got.Points, 1)
		assert.NotEmpty(t, got.Points[0].ID)
		assert.Equal(t, []float32{0.1, 0.2}, got.Points[0].Vector)
		assert.NotEmpty(t, got.Points[0].Payload["name"])
	}
}

func TestLoadFile(t *testing.T) {
	var paths []string
	loader, cleanup := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "time": 0.01})
	})
	defer cleanup()

	file := filepath.Join(t.TempDir(), "catalog.json")
	body := `[{"domain": "transportation", "text": "transfer aeropuerto Cancún", "payload": {"name": "Transfer CUN"}}]`
	require.NoError(t, os.WriteFile(file, []byte(body), 0o644))

	loaded, err := loader.LoadFile(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	assert.Equal(t, []string{"/collections/transportation/points"}, paths)
}

func TestLoadFileRejectsBadJSON(t *testing.T) {
	loader, cleanup := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {})
	defer cleanup()

	file := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(file, []byte("{no es una lista"), 0o644))

	_, err := loader.LoadFile(context.Background(), file)
	assert.Error(t, err)
}

func TestLoadAbortsOnEmbeddingFailure(t *testing.T) {
	embedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer embedSrv.Close()

	embedder := embeddings.NewService(embeddings.Config{BaseURL: embedSrv.URL}, nil)
	loader := NewLoader(embedder, vectordb.NewClient(vectordb.Config{Enabled: true, Host: "localhost"}, zap.NewNop()), zap.NewNop())

	loaded, err := loader.Load(context.Background(), []Record{
		{Domain: "lodging", Text: "hotel en Mérida"},
	})
	require.ErrorIs(t, err, embeddings.ErrEmbeddingUnavailable)
	assert.Zero(t, loaded)
}

func TestLoadSkipsFailedUpsert(t *testing.T) {
	loader, cleanup := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "experiences") {
			http.Error(w, "conflict", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "time": 0.01})
	})
	defer cleanup()

	loaded, err := loader.Load(context.Background(), []Record{
		{Domain: "experiences", Text: "tour fallido"},
		{Domain: "lodging", Text: "hotel que sí carga"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
}

func TestLoadRejectsEmptyText(t *testing.T) {
	loader, cleanup := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {})
	defer cleanup()

	_, err := loader.Load(context.Background(), []Record{{Domain: "lodging"}})
	assert.Error(t, err)
}
