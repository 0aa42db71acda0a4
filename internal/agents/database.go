package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/circuitbreaker"
	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/tracing"
)

// StructuredQueryConfig holds HTTP settings for the structured-query
// translation service.
type StructuredQueryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StructuredQueryClient talks to the service that translates natural
// language into database queries and executes them. Translation and
// execution both live on the service side; this client only carries the
// question over and the answer back.
type StructuredQueryClient struct {
	cfg    StructuredQueryConfig
	http   *circuitbreaker.HTTPWrapper
	logger *zap.Logger
}

// NewStructuredQueryClient creates a structured-query service client
func NewStructuredQueryClient(cfg StructuredQueryConfig, logger *zap.Logger) *StructuredQueryClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	base := &http.Client{Timeout: cfg.Timeout}
	return &StructuredQueryClient{
		cfg:    cfg,
		http:   circuitbreaker.NewHTTPWrapper(base, "structured-query", "structured-query", logger),
		logger: logger,
	}
}

// Query sends one natural-language question and returns the service's
// textual answer.
func (c *StructuredQueryClient) Query(ctx context.Context, question string) (string, error) {
	url := c.cfg.BaseURL + "/query"

	ctx, span := tracing.StartHTTPSpan(ctx, "POST", url)
	defer span.End()

	buf, _ := json.Marshal(map[string]string{"query": question})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build structured query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("structured query service: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read structured query response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("structured query service status %d", resp.StatusCode)
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(rawBody, &out); err != nil {
		return "", fmt.Errorf("decode structured query response: %w", err)
	}
	return out.Response, nil
}

// databaseSpecialist answers catalog questions that need exact data rather
// than similarity search, by delegating to the structured-query service.
type databaseSpecialist struct {
	client *StructuredQueryClient
	logger *zap.Logger
}

// NewDatabaseSpecialist wraps the structured-query client as a specialist.
func NewDatabaseSpecialist(client *StructuredQueryClient, logger *zap.Logger) Specialist {
	return &databaseSpecialist{client: client, logger: logger}
}

func (s *databaseSpecialist) Name() string        { return "query_structured_data" }
func (s *databaseSpecialist) Description() string { return domain.TagDatabase.Description() }

func (s *databaseSpecialist) Answer(ctx context.Context, query string, view *ContextView) (string, error) {
	answer, err := s.client.Query(ctx, query)
	if err != nil {
		s.logger.Error("Structured data lookup failed", zap.Error(err))
		return "", fmt.Errorf("query_structured_data: %w", err)
	}
	view.ProcessedQuery = query
	return answer, nil
}
