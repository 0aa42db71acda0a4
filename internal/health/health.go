// Package health aggregates dependency checks behind liveness and
// readiness endpoints.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckStatus grades one component check.
type CheckStatus int

const (
	StatusHealthy CheckStatus = iota
	StatusDegraded
	StatusUnhealthy
)

func (s CheckStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Component string        `json:"component"`
	Status    CheckStatus   `json:"status"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Critical  bool          `json:"critical"`
}

// Checker is one dependency probe.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
	// IsCritical marks checks whose failure makes the service not ready.
	IsCritical() bool
	Timeout() time.Duration
}

// Overall is the aggregate service health.
type Overall struct {
	Status     CheckStatus            `json:"status"`
	Ready      bool                   `json:"ready"`
	Timestamp  time.Time              `json:"timestamp"`
	Components map[string]CheckResult `json:"components,omitempty"`
}

// Manager runs registered checkers and aggregates their results.
type Manager struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	logger   *zap.Logger
}

// NewManager creates an empty health manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{checkers: make(map[string]Checker), logger: logger}
}

// Register adds a checker. A checker with a duplicate name replaces the
// previous one.
func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[c.Name()] = c
}

// Check runs every checker concurrently, each under its own timeout, and
// aggregates. A failed critical check makes the service unhealthy and not
// ready; a failed non-critical check only degrades it.
func (m *Manager) Check(ctx context.Context) Overall {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	results := make(chan CheckResult, len(checkers))
	for _, c := range checkers {
		go func(c Checker) {
			checkCtx, cancel := context.WithTimeout(ctx, c.Timeout())
			defer cancel()

			start := time.Now()
			res := c.Check(checkCtx)
			res.Component = c.Name()
			res.Critical = c.IsCritical()
			res.Duration = time.Since(start)
			results <- res
		}(c)
	}

	overall := Overall{
		Status:     StatusHealthy,
		Ready:      true,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]CheckResult, len(checkers)),
	}
	for range checkers {
		res := <-results
		overall.Components[res.Component] = res
		if res.Status == StatusHealthy {
			continue
		}
		if res.Critical {
			overall.Status = StatusUnhealthy
			overall.Ready = false
			m.logger.Warn("Critical dependency unhealthy",
				zap.String("component", res.Component),
				zap.String("error", res.Error),
			)
		} else if overall.Status == StatusHealthy {
			overall.Status = StatusDegraded
		}
	}
	return overall
}

// IsReady reports whether every critical dependency is healthy.
func (m *Manager) IsReady(ctx context.Context) bool {
	return m.Check(ctx).Ready
}
