// Package orchestrator decides, per query, between the sequential general
// agent and the parallel specialist batch, using a keyword fast path and a
// model-based analyzer.
package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/agents"
	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/metrics"
)

// Sequential is the single-agent path. The general agent satisfies it.
type Sequential interface {
	Respond(ctx context.Context, query string, view *agents.ContextView) (string, error)
}

// Parallel is the multi-specialist path. The runner satisfies it.
type Parallel interface {
	RunParallel(ctx context.Context, query string, state *agents.ContextState) (string, error)
}

// Orchestrator routes one query to an execution path.
type Orchestrator struct {
	detector *domain.Detector
	analyzer *Analyzer
	general  Sequential
	runner   Parallel // nil disables the parallel path

	fallbackToSequential bool
	logger               *zap.Logger
}

// New creates an orchestrator. A nil runner forces the sequential path for
// every query.
func New(detector *domain.Detector, analyzer *Analyzer, general Sequential, runner Parallel, fallbackToSequential bool, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		detector:             detector,
		analyzer:             analyzer,
		general:              general,
		runner:               runner,
		fallbackToSequential: fallbackToSequential,
		logger:               logger,
	}
}

// Process answers the query. The keyword fast path skips the analyzer when
// parallel execution is impossible anyway; otherwise the model-based
// analyzer decides. A parallel-path failure falls back to the sequential
// agent when configured to.
func (o *Orchestrator) Process(ctx context.Context, query string, state *agents.ContextState) (string, error) {
	decision := o.decide(ctx, query)
	o.logger.Info("Query analysis",
		zap.Bool("parallelize", decision.ShouldParallelize),
		zap.Any("domains", decision.Domains),
		zap.String("complexity", string(decision.Complexity)),
	)

	if decision.ShouldParallelize && o.runner != nil {
		metrics.OrchestratorDecisions.WithLabelValues("parallel", string(decision.Complexity)).Inc()
		out, err := o.runner.RunParallel(ctx, query, state)
		if err == nil {
			return out, nil
		}
		if !o.fallbackToSequential {
			return "", err
		}
		o.logger.Error("Parallel execution failed, falling back to sequential", zap.Error(err))
		metrics.OrchestratorFallbacks.Inc()
		return o.sequential(ctx, query, state)
	}

	metrics.OrchestratorDecisions.WithLabelValues("sequential", string(decision.Complexity)).Inc()
	return o.sequential(ctx, query, state)
}

// ProcessSequential answers the query on the single-agent path regardless
// of what the analyzer would decide. Callers use it to honor a per-request
// parallel opt-out.
func (o *Orchestrator) ProcessSequential(ctx context.Context, query string, state *agents.ContextState) (string, error) {
	metrics.OrchestratorDecisions.WithLabelValues("sequential", "forced").Inc()
	return o.sequential(ctx, query, state)
}

// decide runs the keyword fast path and, only when it leaves parallel
// execution on the table, the model-based analyzer.
func (o *Orchestrator) decide(ctx context.Context, query string) Decision {
	detected := o.detector.Detect(query)
	if !o.detector.ShouldParallelize(detected) {
		return Decision{
			Domains:    detected,
			Complexity: normalizeComplexity("", len(detected)),
		}
	}
	return o.analyzer.Analyze(ctx, query)
}

func (o *Orchestrator) sequential(ctx context.Context, query string, state *agents.ContextState) (string, error) {
	view := state.View()
	out, err := o.general.Respond(ctx, query, &view)
	if err != nil {
		return "", err
	}
	if view.ProcessedQuery != "" {
		state.ProcessedQuery = view.ProcessedQuery
	}
	return out, nil
}
