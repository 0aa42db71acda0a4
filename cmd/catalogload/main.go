// Command catalogload embeds a JSON catalog of knowledge-base records and
// indexes them into the vector store.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/catalog"
	"github.com/rutopia/productobot/internal/config"
	"github.com/rutopia/productobot/internal/embeddings"
	"github.com/rutopia/productobot/internal/vectordb"
)

func main() {
	file := flag.String("file", "", "path to a JSON array of catalog records")
	flag.Parse()
	if *file == "" {
		log.Fatal("usage: catalogload -file <catalog.json>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	embedder := embeddings.NewService(embeddings.Config{BaseURL: cfg.EmbeddingServiceURL}, nil)
	indexer := vectordb.NewClient(vectordb.Config{
		Enabled: true,
		Host:    cfg.VectorDBHost,
		Port:    cfg.VectorDBPort,
	}, logger)

	loader := catalog.NewLoader(embedder, indexer, logger)
	loaded, err := loader.LoadFile(context.Background(), *file)
	if err != nil {
		logger.Fatal("Catalog load failed", zap.Int("loaded", loaded), zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("records", loaded))
}
