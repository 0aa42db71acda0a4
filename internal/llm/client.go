package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rutopia/productobot/internal/circuitbreaker"
	"github.com/rutopia/productobot/internal/interceptors"
	"github.com/rutopia/productobot/internal/metrics"
	"github.com/rutopia/productobot/internal/tracing"
)

// Config holds HTTP client settings for the reasoning service
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Requests per second allowed toward the service; zero disables limiting
	RateLimit float64
	RateBurst int
}

// HTTPClient talks to the reasoning service's /agent/query endpoint. Calls
// go through a rate limiter and a circuit breaker; traceparent and
// conversation metadata headers ride on every request.
type HTTPClient struct {
	cfg     Config
	http    *circuitbreaker.HTTPWrapper
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPClient creates a reasoning-service client
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: interceptors.NewConversationHTTPRoundTripper(nil),
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &HTTPClient{
		cfg:     cfg,
		http:    circuitbreaker.NewHTTPWrapper(base, "reasoning", "llm-service", logger),
		limiter: limiter,
		logger:  logger,
	}
}

// Complete performs one reasoning call
func (c *HTTPClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	purpose := req.Purpose
	if purpose == "" {
		purpose = "general"
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	url := c.cfg.BaseURL + "/agent/query"

	ctx, span := tracing.StartHTTPSpan(ctx, "POST", url)
	defer span.End()

	body := map[string]interface{}{
		"query":    req.Query,
		"agent_id": purpose,
	}
	ctxMap := req.Context
	if req.SystemPrompt != "" {
		if ctxMap == nil {
			ctxMap = map[string]interface{}{}
		}
		ctxMap["system_prompt"] = req.SystemPrompt
	}
	if ctxMap != nil {
		body["context"] = ctxMap
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}

	buf, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build reasoning request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordReasoningMetrics(purpose, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrReasoningUnavailable, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordReasoningMetrics(purpose, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("read reasoning response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordReasoningMetrics(purpose, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("reasoning service status %d: %s", resp.StatusCode, truncateForLog(string(rawBody), 512))
	}

	var out CompletionResponse
	if err := json.Unmarshal(rawBody, &out); err != nil {
		metrics.RecordReasoningMetrics(purpose, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("decode reasoning response: %w", err)
	}

	metrics.RecordReasoningMetrics(purpose, "ok", time.Since(start).Seconds())
	c.logger.Debug("Reasoning call completed",
		zap.String("purpose", purpose),
		zap.String("model", out.ModelUsed),
		zap.Int("tokens", out.TokensUsed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &out, nil
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
