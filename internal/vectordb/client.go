package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/circuitbreaker"
	"github.com/rutopia/productobot/internal/interceptors"
	"github.com/rutopia/productobot/internal/metrics"
	"github.com/rutopia/productobot/internal/tracing"
)

// Client is a minimal Qdrant HTTP client. Collections hold one point per
// knowledge-base record with a narrative embedding and a structured payload.
type Client struct {
	cfg   Config
	base  string
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

// NewClient creates a Qdrant client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := cfg
	if c.Port == 0 {
		c.Port = 6333
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Experiences == "" {
		c.Experiences = "experiences"
	}
	if c.Lodging == "" {
		c.Lodging = "lodging"
	}
	if c.Transportation == "" {
		c.Transportation = "transportation"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{
		Timeout:   c.Timeout,
		Transport: interceptors.NewConversationHTTPRoundTripper(nil),
	}
	return &Client{
		cfg:   c,
		base:  fmt.Sprintf("http://%s:%d", c.Host, c.Port),
		httpw: circuitbreaker.NewHTTPWrapper(httpClient, "qdrant", "vectordb", logger),
		log:   logger,
	}
}

// GetConfig returns the current configuration
func (c *Client) GetConfig() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// qdrant search request/response (simplified)
type qdrantQueryRequest struct {
	Query       []float32              `json:"query"`
	Limit       int                    `json:"limit"`
	WithPayload bool                   `json:"with_payload"`
	Filter      map[string]interface{} `json:"filter,omitempty"`
}

type qdrantPoint struct {
	ID      interface{}            `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantPoint `json:"result"`
	Status string        `json:"status"`
}

// qdrantQueryResponse for the /points/query endpoint which has nested structure
type qdrantQueryResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

// Search runs a similarity query against a collection and returns records in
// ascending cosine-distance order, ties broken by record ID so repeated
// searches return identical orderings.
func (c *Client) Search(ctx context.Context, collection string, vec []float32, limit int, filter *Filter) ([]Record, error) {
	if limit <= 0 {
		limit = c.cfg.TopK
	}
	points, err := c.search(ctx, collection, vec, limit, buildFilter(filter))
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(points))
	for _, p := range points {
		records = append(records, pointToRecord(p))
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Distance != records[j].Distance {
			return records[i].Distance < records[j].Distance
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// buildFilter converts a Filter into Qdrant must clauses
func buildFilter(f *Filter) map[string]interface{} {
	if f.Empty() {
		return nil
	}
	var must []map[string]interface{}
	if f.StateName != "" {
		must = append(must, map[string]interface{}{
			"key":   "destination_name",
			"match": map[string]interface{}{"text": f.StateName},
		})
	}
	if f.PriceTier != "" {
		must = append(must, map[string]interface{}{
			"key":   "price_range",
			"match": map[string]interface{}{"value": f.PriceTier},
		})
	}
	if f.SupplierName != "" {
		must = append(must, map[string]interface{}{
			"key":   "supplier_name",
			"match": map[string]interface{}{"text": f.SupplierName},
		})
	}
	return map[string]interface{}{"must": must}
}

// pointToRecord lifts the well-known payload fields and derives cosine
// distance from the similarity score Qdrant reports.
func pointToRecord(p qdrantPoint) Record {
	rec := Record{
		Payload:  p.Payload,
		Distance: 1 - p.Score,
	}
	if p.ID != nil {
		rec.ID = fmt.Sprintf("%v", p.ID)
	}
	if p.Payload != nil {
		if v, ok := p.Payload["narrative_text"].(string); ok {
			rec.Narrative = v
		}
		if v, ok := p.Payload["city"].(string); ok {
			rec.City = v
		}
	}
	return rec
}

func (c *Client) search(ctx context.Context, collection string, vec []float32, limit int, filter map[string]interface{}) ([]qdrantPoint, error) {
	if c == nil || !c.cfg.Enabled {
		return nil, fmt.Errorf("vectordb: search called while disabled")
	}
	start := time.Now()

	ctx, span := tracing.StartHTTPSpan(ctx, "POST", fmt.Sprintf("%s/collections/%s/points/query", c.base, collection))
	defer span.End()

	// Prefer modern /points/query; on failure, fallback to /points/search for compatibility
	reqBody := qdrantQueryRequest{Query: vec, Limit: limit, WithPayload: true, Filter: filter}
	buf, _ := json.Marshal(reqBody)

	call := func(url string, body []byte) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		tracing.InjectTraceparent(ctx, req)
		return c.httpw.Do(req)
	}

	urlQuery := fmt.Sprintf("%s/collections/%s/points/query", c.base, collection)
	resp, err := call(urlQuery, buf)
	if err != nil {
		metrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// fallback to /points/search
		urlSearch := fmt.Sprintf("%s/collections/%s/points/search", c.base, collection)
		legacy := map[string]interface{}{"vector": vec, "limit": limit, "with_payload": true}
		if filter != nil {
			legacy["filter"] = filter
		}
		buf2, _ := json.Marshal(legacy)
		resp2, err2 := call(urlSearch, buf2)
		if err2 != nil {
			metrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("qdrant query/search failed: %w", err2)
		}
		defer resp2.Body.Close()
		if resp2.StatusCode != http.StatusOK {
			metrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("qdrant status %d", resp2.StatusCode)
		}
		var qr qdrantSearchResponse
		if err := json.NewDecoder(resp2.Body).Decode(&qr); err != nil {
			metrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
			return nil, err
		}
		metrics.RecordVectorSearchMetrics(collection, "ok", time.Since(start).Seconds())
		return qr.Result, nil
	}
	var qr qdrantQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		metrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordVectorSearchMetrics(collection, "ok", time.Since(start).Seconds())
	return qr.Result.Points, nil
}

// Upsert inserts or updates one or more points into a collection
func (c *Client) Upsert(ctx context.Context, collection string, points []UpsertItem) (*UpsertResponse, error) {
	if c == nil || !c.cfg.Enabled {
		return nil, fmt.Errorf("vectordb: upsert called while disabled")
	}

	url := fmt.Sprintf("%s/collections/%s/points", c.base, collection)
	ctx, span := tracing.StartHTTPSpan(ctx, "PUT", url)
	defer span.End()

	body := map[string]interface{}{
		"points": points,
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)
	resp, err := c.httpw.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant upsert status %d", resp.StatusCode)
	}
	var r UpsertResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertRecord inserts one knowledge-base record with a fresh point ID
func (c *Client) UpsertRecord(ctx context.Context, collection string, vec []float32, payload map[string]interface{}) (*UpsertResponse, error) {
	p := UpsertItem{
		ID:      uuid.New().String(),
		Vector:  vec,
		Payload: payload,
	}
	return c.Upsert(ctx, collection, []UpsertItem{p})
}

// CollectionFor maps a domain name to its configured collection. Unknown
// domains fall back to experiences.
func (c *Client) CollectionFor(domainName string) string {
	switch domainName {
	case "lodging":
		return c.cfg.Lodging
	case "transportation":
		return c.cfg.Transportation
	default:
		return c.cfg.Experiences
	}
}
