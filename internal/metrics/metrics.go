package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Chat metrics
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_chat_turns_total",
			Help: "Total number of chat turns processed",
		},
		[]string{"mode", "status"},
	)

	ChatTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productobot_chat_turn_duration_seconds",
			Help:    "Chat turn duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// Orchestration metrics
	OrchestratorDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_orchestrator_decisions_total",
			Help: "Total number of orchestration decisions by execution path",
		},
		[]string{"path", "complexity"},
	)

	OrchestratorFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productobot_orchestrator_fallbacks_total",
			Help: "Total number of falls back to the sequential single-agent path",
		},
	)

	AnalyzerParses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_analyzer_parses_total",
			Help: "Query analyzer parse outcomes (json, embedded_json, heuristic)",
		},
		[]string{"method"},
	)

	// Specialist metrics
	SpecialistExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_specialist_executions_total",
			Help: "Total number of specialist executions",
		},
		[]string{"specialist", "status"},
	)

	SpecialistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productobot_specialist_duration_seconds",
			Help:    "Specialist execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"specialist"},
	)

	SynthesisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "productobot_synthesis_latency_seconds",
			Help:    "Meta-synthesis reasoning call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ParallelBatchTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productobot_parallel_batch_timeouts_total",
			Help: "Total number of parallel batches that hit the shared deadline",
		},
	)

	// Retrieval metrics
	RetrievalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_retrieval_requests_total",
			Help: "Total number of retrieval pipeline runs",
		},
		[]string{"domain", "status"},
	)

	RetrievalFallbackDepth = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productobot_retrieval_fallback_depth",
			Help:    "Index of the filter strategy that produced the accepted result set",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"domain"},
	)

	// Reasoning service metrics
	ReasoningRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_reasoning_requests_total",
			Help: "Total number of reasoning service calls",
		},
		[]string{"purpose", "status"},
	)

	ReasoningLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productobot_reasoning_latency_seconds",
			Help:    "Reasoning service call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"purpose"},
	)

	// Vector search metrics
	VectorSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_vector_search_total",
			Help: "Total number of vector searches",
		},
		[]string{"collection", "status"},
	)

	VectorSearchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productobot_vector_search_latency_seconds",
			Help:    "Vector search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_embedding_requests_total",
			Help: "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productobot_embedding_latency_seconds",
			Help:    "Embedding generation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// Query cache metrics
	QueryCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_query_cache_hits_total",
			Help: "Total number of query cache hits",
		},
		[]string{"kind"},
	)

	QueryCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productobot_query_cache_misses_total",
			Help: "Total number of query cache misses",
		},
		[]string{"kind"},
	)

	// Conversation store metrics
	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productobot_conversations_created_total",
			Help: "Total number of conversations created",
		},
	)

	ConversationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productobot_conversation_cache_hits_total",
			Help: "Total number of conversation local cache hits",
		},
	)

	ConversationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productobot_conversation_cache_misses_total",
			Help: "Total number of conversation local cache misses",
		},
	)

	ConversationCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "productobot_conversation_cache_size",
			Help: "Current number of conversations in local cache",
		},
	)

	ConversationCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productobot_conversation_cache_evictions_total",
			Help: "Total number of conversations evicted from local cache",
		},
	)
)

// RecordSpecialistMetrics records metrics for one specialist execution
func RecordSpecialistMetrics(specialist, status string, durationSeconds float64) {
	SpecialistExecutions.WithLabelValues(specialist, status).Inc()
	if durationSeconds > 0 {
		SpecialistDuration.WithLabelValues(specialist).Observe(durationSeconds)
	}
}

// RecordRetrievalMetrics records metrics for one retrieval pipeline run
func RecordRetrievalMetrics(domain, status string, fallbackDepth int) {
	RetrievalRequests.WithLabelValues(domain, status).Inc()
	if fallbackDepth >= 0 {
		RetrievalFallbackDepth.WithLabelValues(domain).Observe(float64(fallbackDepth))
	}
}

// RecordReasoningMetrics records metrics for one reasoning service call
func RecordReasoningMetrics(purpose, status string, durationSeconds float64) {
	ReasoningRequests.WithLabelValues(purpose, status).Inc()
	if durationSeconds > 0 {
		ReasoningLatency.WithLabelValues(purpose).Observe(durationSeconds)
	}
}

// RecordVectorSearchMetrics records vector search metrics
func RecordVectorSearchMetrics(collection, status string, durationSeconds float64) {
	VectorSearches.WithLabelValues(collection, status).Inc()
	if durationSeconds > 0 {
		VectorSearchLatency.WithLabelValues(collection).Observe(durationSeconds)
	}
}

// RecordEmbeddingMetrics records embedding metrics
func RecordEmbeddingMetrics(model, status string, durationSeconds float64) {
	EmbeddingRequests.WithLabelValues(model, status).Inc()
	if durationSeconds > 0 {
		EmbeddingLatency.WithLabelValues(model).Observe(durationSeconds)
	}
}
