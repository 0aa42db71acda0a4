package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rutopia/productobot/internal/agents"
	"github.com/rutopia/productobot/internal/assistant"
	"github.com/rutopia/productobot/internal/circuitbreaker"
	"github.com/rutopia/productobot/internal/config"
	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/embeddings"
	"github.com/rutopia/productobot/internal/health"
	"github.com/rutopia/productobot/internal/llm"
	"github.com/rutopia/productobot/internal/orchestrator"
	"github.com/rutopia/productobot/internal/retrieval"
	"github.com/rutopia/productobot/internal/server"
	"github.com/rutopia/productobot/internal/session"
	"github.com/rutopia/productobot/internal/tracing"
	"github.com/rutopia/productobot/internal/vectordb"
)

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := tracing.Initialize(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  "productobot-assistant",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}, logger); err != nil {
		logger.Warn("Tracing unavailable, continuing without it", zap.Error(err))
	}

	circuitbreaker.StartMetricsCollection()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	redisWrapper := circuitbreaker.NewRedisWrapper(redisClient, "redis", logger)
	if err := redisWrapper.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not reachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	store := session.NewStore(redisWrapper, cfg.SessionTTL, logger)

	// Redis TTLs evict idle conversations; the sweep catches entries whose
	// stored timestamp outlived the session TTL across TTL reconfigurations.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := store.CleanupExpired(ctx); err != nil {
					logger.Warn("Conversation cleanup failed", zap.Error(err))
				}
			}
		}
	}()

	llmClient := llm.NewHTTPClient(llm.Config{BaseURL: cfg.LLMServiceURL}, logger)

	embedder := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.EmbeddingServiceURL,
	}, embeddings.NewRedisCache(redisWrapper))

	searcher := vectordb.NewClient(vectordb.Config{
		Enabled: true,
		Host:    cfg.VectorDBHost,
		Port:    cfg.VectorDBPort,
		TopK:    cfg.RetrievalTopK,
	}, logger)
	if err := searcher.ValidateEmbeddingDimensions(ctx); err != nil {
		logger.Warn("Vector collection validation failed", zap.Error(err))
	}

	pipeline := retrieval.NewPipeline(
		retrieval.NewExtractor(llmClient, logger),
		embedder,
		searcher,
		retrieval.NewQueryCache(cfg.EnableQueryCache, cfg.QueryCacheTTL, redisWrapper),
		cfg.RetrievalTopK,
		logger,
	)

	structuredQuery := agents.NewStructuredQueryClient(agents.StructuredQueryConfig{
		BaseURL: cfg.StructuredQueryURL,
	}, logger)

	specialists := []agents.Specialist{
		agents.NewExperiencesSpecialist(pipeline, llmClient, logger),
		agents.NewLodgingSpecialist(pipeline, llmClient, logger),
		agents.NewTransportationSpecialist(pipeline, llmClient, logger),
		agents.NewDatabaseSpecialist(structuredQuery, logger),
	}

	detector := domain.NewDetector(logger,
		domain.WithParallelThreshold(cfg.EnableParallelAgents, cfg.MinDomainsForParallel))

	mgr, err := config.NewManager(cfg.KeywordsConfigPath, logger)
	if err != nil {
		logger.Warn("Keyword config watcher unavailable", zap.String("dir", cfg.KeywordsConfigPath), zap.Error(err))
	} else {
		detector.RegisterWith(mgr)
		if err := mgr.Start(ctx); err != nil {
			logger.Warn("Keyword config watcher failed to start", zap.Error(err))
		} else {
			defer mgr.Stop()
		}
	}

	general := agents.NewGeneral(llmClient, specialists, logger)

	var runner orchestrator.Parallel
	if cfg.EnableParallelAgents {
		runner = agents.NewRunner(specialists, agents.NewSynthesizer(llmClient, logger), cfg.ParallelExecutionTimeout, logger,
			agents.WithExecutionTimeline(cfg.LogExecutionTimeline))
	}

	engine := orchestrator.New(
		detector,
		orchestrator.NewAnalyzer(llmClient, detector, cfg.EnableQueryCache, logger),
		general,
		runner,
		cfg.FallbackToSequential,
		logger,
	)

	bot := assistant.New(store, engine, logger, assistant.WithHistoryWindow(cfg.MaxHistoryMessages))

	hm := health.NewManager(logger)
	hm.Register(health.NewRedisChecker(redisWrapper))
	hm.Register(health.NewHTTPServiceChecker("llm-service", cfg.LLMServiceURL+"/health", false))
	hm.Register(health.NewHTTPServiceChecker("embedding-service", cfg.EmbeddingServiceURL+"/health", false))
	hm.Register(health.NewHTTPServiceChecker("structured-query", cfg.StructuredQueryURL+"/health", false))

	server.StartMetricsServer(cfg.MetricsPort, logger)

	srv := server.New(bot, hm, cfg.HTTPPort, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Chat server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Warn("Redis close failed", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}
