package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/liao/quimicai/internal/ai"
	"github.com/liao/quimicai/internal/config"
	"github.com/liao/quimicai/internal/corpus"
	"github.com/liao/quimicai/internal/rag"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	input := flag.String("input", "", "knowledge base JSON (overrides data.knowledge_file)")
	dump := flag.String("dump", "", "write the corpus as JSON lines to this file")
	noIndex := flag.Bool("no-index", false, "only build and report the corpus, skip embedding")
	flag.Parse()

	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// 只出报告时不需要 API key
	var cfg *config.Config
	if !*noIndex || *input == "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	path := *input
	if path == "" {
		path = cfg.Data.KnowledgeFile
	}

	// 1. 构建语料
	units, stats := corpus.NewBuilder(nil).BuildFile(path)
	printReport(path, units, stats)

	// 2. 导出
	if *dump != "" {
		if err := writeJSONL(*dump, units); err != nil {
			slog.Error("dump corpus failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Corpus written to %s\n", *dump)
	}

	if *noIndex {
		return
	}
	if len(units) == 0 {
		fmt.Println("Empty corpus, nothing to index")
		return
	}

	// 3. 预建向量索引
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

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

	store, err := rag.NewStore(cfg.RAG.VectorsDir, cfg.Gemini.EmbeddingModel, aiClient.EmbedFunc())
	if err != nil {
		slog.Error("open vector store failed", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	idx, err := rag.NewIndexer(store, nil).Index(ctx, units)
	if err != nil {
		slog.Error("build index failed", "error", err)
		os.Exit(1)
	}

	fmt.Println("\n=== Index ===")
	fmt.Printf("Collection: %s\n", store.CollectionName(corpus.Hash(units)))
	fmt.Printf("Vectors:    %d\n", idx.Count())
	fmt.Printf("Directory:  %s\n", cfg.RAG.VectorsDir)
	fmt.Printf("Took:       %s\n", time.Since(start).Round(time.Millisecond))
}

func printReport(path string, units []corpus.Unit, stats corpus.Stats) {
	fmt.Println("=== Knowledge base ===")
	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Chemicals:  %d\n", stats.Chemicals)
	fmt.Printf("Recipes:    %d\n", stats.Recipes)
	fmt.Printf("Rules:      %d\n", stats.Rules)
	fmt.Printf("Units:      %d\n", stats.Total())
	fmt.Printf("Skipped:    %d (missing id %d, duplicate %d, invalid %d)\n",
		stats.Skipped(), stats.MissingID, stats.Duplicates, stats.Invalid)
}

func writeJSONL(path string, units []corpus.Unit) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, u := range units {
		if err := enc.Encode(u); err != nil {
			return fmt.Errorf("encode unit: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
