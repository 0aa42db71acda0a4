package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rutopia/productobot/internal/circuitbreaker"
)

const defaultCheckTimeout = 5 * time.Second

// RedisChecker probes the conversation/cache Redis through its circuit
// breaker wrapper.
type RedisChecker struct {
	wrapper *circuitbreaker.RedisWrapper
}

// NewRedisChecker creates a Redis health checker
func NewRedisChecker(wrapper *circuitbreaker.RedisWrapper) *RedisChecker {
	return &RedisChecker{wrapper: wrapper}
}

func (r *RedisChecker) Name() string           { return "redis" }
func (r *RedisChecker) IsCritical() bool       { return true }
func (r *RedisChecker) Timeout() time.Duration { return defaultCheckTimeout }

func (r *RedisChecker) Check(ctx context.Context) CheckResult {
	if err := r.wrapper.Ping(ctx).Err(); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "ping ok"}
}

// HTTPServiceChecker probes a dependent HTTP service's health endpoint.
// The reasoning, embedding, structured-query, and vector services all
// expose one.
type HTTPServiceChecker struct {
	name     string
	url      string
	critical bool
	client   *http.Client
}

// NewHTTPServiceChecker creates a checker that GETs url and expects 2xx.
func NewHTTPServiceChecker(name, url string, critical bool) *HTTPServiceChecker {
	return &HTTPServiceChecker{
		name:     name,
		url:      url,
		critical: critical,
		client:   &http.Client{Timeout: defaultCheckTimeout},
	}
}

func (h *HTTPServiceChecker) Name() string           { return h.name }
func (h *HTTPServiceChecker) IsCritical() bool       { return h.critical }
func (h *HTTPServiceChecker) Timeout() time.Duration { return defaultCheckTimeout }

func (h *HTTPServiceChecker) Check(ctx context.Context) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  fmt.Sprintf("status %d", resp.StatusCode),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("status %d", resp.StatusCode)}
}
