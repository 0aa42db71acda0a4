package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/llm"
	"github.com/rutopia/productobot/internal/metrics"
)

const (
	analyzerMaxTokens   = 300
	analyzerTemperature = 0.1

	// analyzerCacheSize bounds the decision memoization map.
	analyzerCacheSize = 256
)

const analyzerPrompt = `Analyze this user query and determine if it would benefit from parallel processing.

Return a JSON response with:
- should_parallelize: true if query covers multiple domains (experiences, lodging, transportation, etc.)
- domains: list of relevant domains
- complexity: "simple", "moderate", or "complex"

Example: "Dame hoteles y experiencias en Cancún" -> should_parallelize: true, domains: ["lodging", "experiences"]

Respond with ONLY the JSON object.`

// Complexity grades the analyzed query.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Decision is the analyzed execution plan for one query.
type Decision struct {
	ShouldParallelize bool
	Domains           []domain.Tag
	Complexity        Complexity
}

// analyzerWire is the JSON shape the model is asked to produce.
type analyzerWire struct {
	ShouldParallelize bool     `json:"should_parallelize"`
	Domains           []string `json:"domains"`
	Complexity        string   `json:"complexity"`
}

// Analyzer asks the reasoning model whether a query spans enough domains to
// run the specialists in parallel. It never fails: any model or parse
// problem degrades to the keyword heuristic.
type Analyzer struct {
	llm      llm.Client
	detector *domain.Detector
	logger   *zap.Logger

	memoize bool
	mu      sync.Mutex
	cache   map[string]Decision
}

// NewAnalyzer creates a query analyzer. With memoize enabled, decisions are
// cached per normalized query so repeated questions skip the model call.
func NewAnalyzer(client llm.Client, detector *domain.Detector, memoize bool, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		llm:      client,
		detector: detector,
		logger:   logger,
		memoize:  memoize,
		cache:    make(map[string]Decision),
	}
}

// Analyze returns the execution decision for the query.
func (a *Analyzer) Analyze(ctx context.Context, query string) Decision {
	key := strings.ToLower(strings.TrimSpace(query))
	if a.memoize {
		a.mu.Lock()
		if d, ok := a.cache[key]; ok {
			a.mu.Unlock()
			return d
		}
		a.mu.Unlock()
	}

	d := a.analyze(ctx, query)
	if a.memoize {
		a.mu.Lock()
		if len(a.cache) >= analyzerCacheSize {
			a.cache = make(map[string]Decision)
		}
		a.cache[key] = d
		a.mu.Unlock()
	}
	return d
}

func (a *Analyzer) analyze(ctx context.Context, query string) Decision {
	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		Query:        query,
		SystemPrompt: analyzerPrompt,
		Purpose:      "analyzer",
		MaxTokens:    analyzerMaxTokens,
		Temperature:  analyzerTemperature,
	})
	if err != nil {
		a.logger.Warn("Query analyzer call failed, using keyword heuristic", zap.Error(err))
		return a.heuristic(query)
	}

	// Three-stage parse: strict JSON, then the first embedded object, then
	// the keyword heuristic.
	trimmed := strings.TrimSpace(resp.Response)
	var wire analyzerWire
	if err := json.Unmarshal([]byte(trimmed), &wire); err == nil {
		metrics.AnalyzerParses.WithLabelValues("json").Inc()
		return a.fromWire(wire)
	}
	if obj, ok := llm.FirstJSONObject(resp.Response); ok {
		if err := json.Unmarshal([]byte(obj), &wire); err == nil {
			metrics.AnalyzerParses.WithLabelValues("embedded_json").Inc()
			return a.fromWire(wire)
		}
	}

	a.logger.Warn("Query analyzer response unparseable, using keyword heuristic",
		zap.String("response", truncate(resp.Response, 200)),
	)
	return a.heuristic(query)
}

// fromWire validates the model's decision against the closed domain set and
// the parallel threshold.
func (a *Analyzer) fromWire(wire analyzerWire) Decision {
	tags := make([]domain.Tag, 0, len(wire.Domains))
	for _, d := range wire.Domains {
		tag := domain.Tag(strings.ToLower(strings.TrimSpace(d)))
		if domain.Valid(tag) {
			tags = append(tags, tag)
		}
	}
	return Decision{
		ShouldParallelize: wire.ShouldParallelize && a.detector.ShouldParallelize(tags),
		Domains:           tags,
		Complexity:        normalizeComplexity(wire.Complexity, len(tags)),
	}
}

func (a *Analyzer) heuristic(query string) Decision {
	metrics.AnalyzerParses.WithLabelValues("heuristic").Inc()
	tags := a.detector.Detect(query)
	return Decision{
		ShouldParallelize: a.detector.ShouldParallelize(tags),
		Domains:           tags,
		Complexity:        normalizeComplexity("", len(tags)),
	}
}

func normalizeComplexity(s string, domainCount int) Complexity {
	switch Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case ComplexitySimple:
		return ComplexitySimple
	case ComplexityModerate:
		return ComplexityModerate
	case ComplexityComplex:
		return ComplexityComplex
	}
	if domainCount > 1 {
		return ComplexityComplex
	}
	return ComplexitySimple
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
