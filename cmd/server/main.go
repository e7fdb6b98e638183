package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/liao/quimicai/internal/ai"
	"github.com/liao/quimicai/internal/assistant"
	"github.com/liao/quimicai/internal/config"
	"github.com/liao/quimicai/internal/corpus"
	"github.com/liao/quimicai/internal/metrics"
	"github.com/liao/quimicai/internal/rag"
	"github.com/liao/quimicai/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Gemini 客户端
	aiClient, err := ai.NewClient(ctx,
		cfg.Gemini.APIKey,
		cfg.Gemini.ChatModels,
		cfg.Gemini.EmbeddingModel,
		cfg.Gemini.Temperature,
		cfg.Gemini.MaxOutputTokens,
		cfg.Gemini.RPMLimit,
		cfg.Gemini.Timeout(),
	)
	if err != nil {
		slog.Error("create AI client failed", "error", err)
		os.Exit(1)
	}
	slog.Info("AI client initialized", "models", cfg.Gemini.ChatModels)

	// 知识库 -> 语料
	units, stats := corpus.NewBuilder(nil).BuildFile(cfg.Data.KnowledgeFile)
	m.SetCorpus(units)
	slog.Info("knowledge base loaded",
		"file", cfg.Data.KnowledgeFile,
		"chemicals", stats.Chemicals,
		"recipes", stats.Recipes,
		"rules", stats.Rules,
		"skipped", stats.Skipped(),
	)

	// 向量索引，必须在开始服务前完成
	var qa *assistant.Assistant
	store, err := rag.NewStore(cfg.RAG.VectorsDir, cfg.Gemini.EmbeddingModel, aiClient.EmbedFunc())
	if err != nil {
		slog.Error("open vector store failed", "error", err)
		os.Exit(1)
	}
	idx, err := rag.NewIndexer(store, m).Index(ctx, units)
	if err != nil {
		// 继续提供 health，问答返回 500
		slog.Error("build vector index failed, assistant not ready", "error", err)
		qa = assistant.New(nil, nil, m, nil)
	} else {
		pipeline := rag.NewPipeline(idx, cfg.RAG.TopK, cfg.RAG.MinSimilarity)
		slog.Info("retriever ready", "vectors", pipeline.Size(), "top_k", cfg.RAG.TopK)
		qa = assistant.New(pipeline, aiClient, m, nil)
	}

	srv := server.New(qa, server.Options{
		Addr:           cfg.Server.Addr(),
		Debug:          cfg.Server.Debug,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CorpusUnits:    len(units),
		Metrics:        m,
	})
	if err := srv.Run(ctx); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("bye")
}
