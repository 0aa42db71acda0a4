package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/formatting"
	"github.com/rutopia/productobot/internal/metrics"
	"github.com/rutopia/productobot/internal/vectordb"
)

// Embedder produces query vectors. Satisfied by *embeddings.Service.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string, model string) ([]float32, error)
}

// Searcher runs similarity searches against the catalog. Satisfied by
// *vectordb.Client.
type Searcher interface {
	Search(ctx context.Context, collection string, vec []float32, limit int, filter *vectordb.Filter) ([]vectordb.Record, error)
	CollectionFor(domainName string) string
}

// Pipeline is the retrieval core: extraction, linearization, embedding,
// strategy-chain search, and formatting.
type Pipeline struct {
	extractor *Extractor
	embedder  Embedder
	searcher  Searcher
	cache     *QueryCache
	topK      int
	logger    *zap.Logger
}

// NewPipeline wires the retrieval stages. cache may be nil.
func NewPipeline(extractor *Extractor, embedder Embedder, searcher Searcher, cache *QueryCache, topK int, logger *zap.Logger) *Pipeline {
	if topK <= 0 {
		topK = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		searcher:  searcher,
		cache:     cache,
		topK:      topK,
		logger:    logger,
	}
}

// Retrieve answers a free-text query against one domain's collection.
// "Found nothing" is a valid Answer with no records; an error means the
// search itself could not run (extraction, embedding, or datastore
// failure) and the two must never be conflated.
func (p *Pipeline) Retrieve(ctx context.Context, query string, tag domain.Tag) (Answer, error) {
	narrative, cached := p.cache.Get(ctx, tag, query)
	if !cached {
		var err error
		narrative, err = p.extractor.Extract(ctx, query, tag)
		if err != nil {
			metrics.RecordRetrievalMetrics(string(tag), "error", 0)
			return Answer{}, err
		}
		p.cache.Put(ctx, tag, query, narrative)
	}

	text := narrative.Linearize()
	if text == "" {
		// Nothing extractable: embed the raw query rather than a blank.
		text = query
	}

	vec, err := p.embedder.GenerateEmbedding(ctx, text, "")
	if err != nil {
		metrics.RecordRetrievalMetrics(string(tag), "error", 0)
		return Answer{}, fmt.Errorf("embed query: %w", err)
	}

	collection := p.searcher.CollectionFor(string(tag))
	threshold := Threshold(tag)
	chain := BuildChain(narrative)

	depth := 0
	for {
		strategy, ok := chain.Next()
		if !ok {
			// Unreachable: the terminal strategy always accepts.
			metrics.RecordRetrievalMetrics(string(tag), "error", depth)
			return Answer{}, fmt.Errorf("retrieval: strategy chain exhausted without terminal state")
		}

		filter := strategy.Filter
		records, err := p.searcher.Search(ctx, collection, vec, p.topK, &filter)
		if err != nil {
			metrics.RecordRetrievalMetrics(string(tag), "error", depth)
			return Answer{}, fmt.Errorf("similarity search: %w", err)
		}

		if Accept(records, chain.Exhausted(), threshold) {
			p.logger.Debug("Retrieval strategy accepted",
				zap.String("domain", string(tag)),
				zap.String("match_type", string(strategy.Match)),
				zap.Int("fallback_depth", depth),
				zap.Int("records", len(records)))
			metrics.RecordRetrievalMetrics(string(tag), "success", depth)
			return Answer{
				Formatted: formatting.FormatResults(tag, records),
				Records:   records,
				MatchType: strategy.Match,
			}, nil
		}
		depth++
	}
}
