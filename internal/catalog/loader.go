// Package catalog loads knowledge-base records into the vector store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/vectordb"
)

// Record is one catalog entry: the text that gets embedded and the payload
// stored alongside the vector.
type Record struct {
	Domain  string                 `json:"domain"`
	Text    string                 `json:"text"`
	Payload map[string]interface{} `json:"payload"`
}

// Embedder produces the vector for a record's text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string, model string) ([]float32, error)
}

// Indexer writes records into the vector store. Satisfied by
// *vectordb.Client.
type Indexer interface {
	UpsertRecord(ctx context.Context, collection string, vec []float32, payload map[string]interface{}) (*vectordb.UpsertResponse, error)
	CollectionFor(domainName string) string
}

// Loader embeds and indexes catalog records.
type Loader struct {
	embedder Embedder
	indexer  Indexer
	logger   *zap.Logger
}

// NewLoader creates a catalog loader
func NewLoader(embedder Embedder, indexer Indexer, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{embedder: embedder, indexer: indexer, logger: logger}
}

// LoadFile reads a JSON array of records from path and indexes each one.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parse catalog: %w", err)
	}
	return l.Load(ctx, records)
}

// Load embeds and upserts every record. An embedding failure aborts the
// load since every remaining record would fail the same way; an upsert
// failure skips only that record. Returns how many records landed.
func (l *Loader) Load(ctx context.Context, records []Record) (int, error) {
	loaded := 0
	for i, rec := range records {
		if rec.Text == "" {
			return loaded, fmt.Errorf("record %d: empty text", i)
		}
		vec, err := l.embedder.GenerateEmbedding(ctx, rec.Text, "")
		if err != nil {
			return loaded, fmt.Errorf("record %d: embed: %w", i, err)
		}
		collection := l.indexer.CollectionFor(rec.Domain)
		if _, err := l.indexer.UpsertRecord(ctx, collection, vec, rec.Payload); err != nil {
			l.logger.Warn("Record upsert failed",
				zap.Int("index", i),
				zap.String("collection", collection),
				zap.Error(err),
			)
			continue
		}
		loaded++
	}
	l.logger.Info("Catalog load complete",
		zap.Int("loaded", loaded),
		zap.Int("total", len(records)),
	)
	return loaded, nil
}
