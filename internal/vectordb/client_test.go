package vectordb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	c := NewClient(Config{Enabled: true, Host: u.Hostname(), Port: port}, zap.NewNop())
	return c, srv
}

func TestSearchOrdersByDistanceWithIDTieBreak(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Scores arrive unordered; two share a score so IDs break the tie
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"points": []map[string]interface{}{
					{"id": "b", "score": 0.6, "payload": map[string]interface{}{"narrative_text": "cabaña en bosque"}},
					{"id": "c", "score": 0.9, "payload": map[string]interface{}{}},
					{"id": "a", "score": 0.6, "payload": map[string]interface{}{}},
				},
			},
			"status": "ok",
		})
	})
	defer srv.Close()

	recs, err := c.Search(context.Background(), "lodging", []float32{0.1}, 5, nil)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "c", recs[0].ID)
	assert.InDelta(t, 0.1, recs[0].Distance, 1e-9)
	assert.Equal(t, "a", recs[1].ID)
	assert.Equal(t, "b", recs[2].ID)
	assert.Equal(t, "cabaña en bosque", recs[2].Narrative)
}

func TestSearchSendsFilterClauses(t *testing.T) {
	var got qdrantQueryRequest
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{"points": []map[string]interface{}{}},
			"status": "ok",
		})
	})
	defer srv.Close()

	_, err := c.Search(context.Background(), "lodging", []float32{0.1}, 3, &Filter{
		StateName: "Oaxaca",
		PriceTier: "comfort",
	})
	require.NoError(t, err)

	must, ok := got.Filter["must"].([]interface{})
	require.True(t, ok)
	require.Len(t, must, 2)

	first := must[0].(map[string]interface{})
	assert.Equal(t, "destination_name", first["key"])
}

func TestSearchNoFilterOmitsClause(t *testing.T) {
	var got qdrantQueryRequest
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{"points": []map[string]interface{}{}},
			"status": "ok",
		})
	})
	defer srv.Close()

	_, err := c.Search(context.Background(), "experiences", []float32{0.1}, 3, &Filter{})
	require.NoError(t, err)
	assert.Nil(t, got.Filter)
}

func TestSearchLegacyFallback(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/experiences/points/query" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.Equal(t, "/collections/experiences/points/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": []map[string]interface{}{
				{"id": 7, "score": 0.8, "payload": map[string]interface{}{"city": "Mérida"}},
			},
			"status": "ok",
		})
	})
	defer srv.Close()

	recs, err := c.Search(context.Background(), "experiences", []float32{0.1}, 3, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "7", recs[0].ID)
	assert.Equal(t, "Mérida", recs[0].City)
}

func TestSearchDisabled(t *testing.T) {
	c := NewClient(Config{Enabled: false}, zap.NewNop())
	_, err := c.Search(context.Background(), "lodging", []float32{0.1}, 3, nil)
	assert.Error(t, err)
}

func TestCollectionFor(t *testing.T) {
	c := NewClient(Config{Enabled: true, Host: "localhost"}, zap.NewNop())
	assert.Equal(t, "lodging", c.CollectionFor("lodging"))
	assert.Equal(t, "transportation", c.CollectionFor("transportation"))
	assert.Equal(t, "experiences", c.CollectionFor("experiences"))
	assert.Equal(t, "experiences", c.CollectionFor("unknown"))
}
