package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/database"
	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/queue"
	"github.com/askdocs/askdocs/internal/queue/workers"
	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gw := llm.NewGateway(cfg.LLM)
	embedSvc := embedding.NewService(gw, cfg.Embedding.Model, cfg.Embedding.Dimension)
	store := vectorstore.NewPgVectorStore(db)

	pipeline := rag.NewPipeline(store, embedSvc, gw, rag.PipelineConfig{
		GenerationProvider: cfg.LLM.DefaultProvider,
		GenerationModel:    cfg.LLM.DefaultModel,
		RerankModel:        cfg.LLM.RerankModel,
	})

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
		},
	)

	mux := asynq.NewServeMux()
	ingestWorker := workers.NewIngestWorker(pipeline)
	mux.Handle(queue.TypeDocumentIngest, asynq.HandlerFunc(ingestWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
