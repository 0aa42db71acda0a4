package embeddings

import (
	"errors"
	"time"
)

// ErrEmbeddingUnavailable marks failures to produce a vector. Retrieval
// treats this as a hard error, never as an empty result set.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// Config controls the embedding service behavior
type Config struct {
	// BaseURL points to the service providing /embeddings
	BaseURL string
	// DefaultModel is the default embedding model
	DefaultModel string
	// Timeout for outbound HTTP calls
	Timeout time.Duration
	// CacheTTL sets TTL for embedding cache entries
	CacheTTL time.Duration
	// MaxLRU controls in-process LRU size
	MaxLRU int
}
