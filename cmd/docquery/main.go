// Package main provides the docquery CLI for ingesting and querying
// documents from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docquery/docquery/internal/config"
	"github.com/docquery/docquery/internal/embedding"
	"github.com/docquery/docquery/internal/llm"
	"github.com/docquery/docquery/internal/pipeline"
	"github.com/docquery/docquery/internal/storage"
	"github.com/docquery/docquery/internal/synthesizer"
	"github.com/docquery/docquery/internal/vectorindex"
	"github.com/docquery/docquery/internal/vectorindex/memory"
	"github.com/docquery/docquery/internal/vectorindex/qdrantindex"
)

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "Document ingestion and semantic question answering",
	Long: `CLI for the DocQuery pipeline: chunk and embed documents, then ask
questions answered from their content.

Environment variables:
  DB_PATH         SQLite database path (default: data/docquery.db)
  OLLAMA_URL      Embedding service URL (default: http://localhost:11434)
  LLM_API_KEY     Chat completion API key; unset disables answer synthesis
  INDEX_BACKEND   Vector index backend: memory or qdrant (default: memory)`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <files...>",
	Short: "Ingest text or markdown files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search ingested documents and synthesize an answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline wires the full pipeline from environment configuration.
// The returned cleanup closes storage and the index connection.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	var index vectorindex.Index
	closeIndex := func() {}
	if cfg.IndexBackend == config.BackendQdrant {
		qidx, err := qdrantindex.New(ctx, cfg.QdrantHost, cfg.QdrantPort,
			qdrantindex.DefaultCollection, cfg.EmbeddingDimension)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		index = qidx
		closeIndex = func() { qidx.Close() }
	} else {
		index = memory.New(cfg.EmbeddingDimension, logger)
	}

	embedder := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.OllamaURL,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
		Timeout:   cfg.EmbeddingTimeout,
	})

	var synth pipeline.Synthesizer
	if cfg.LLMAPIKey != "" {
		chat := llm.NewOpenAIChat(llm.Config{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
		})
		synth = synthesizer.New(chat, synthesizer.Config{}, logger)
	}

	p := pipeline.New(store, index, embedder, synth, pipeline.Config{
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MaxResults:          cfg.MaxResults,
		EmbedConcurrency:    cfg.EmbedConcurrency,
	}, logger)

	if cfg.IndexBackend == config.BackendMemory {
		if err := p.WarmIndex(ctx); err != nil {
			closeIndex()
			store.Close()
			return nil, nil, fmt.Errorf("warming vector index: %w", err)
		}
	}

	cleanup := func() {
		closeIndex()
		store.Close()
	}
	return p, cleanup, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		result, err := p.Ingest(ctx, filepath.Base(path), string(content))
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		fmt.Printf("Ingested %s: %d chunks, %d tokens (id %s)\n",
			result.Name, result.ChunkCount, result.TokenCount, result.DocumentID)
	}

	fmt.Printf("\nTotal time: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := p.Search(ctx, args[0])
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Println("No matching documents found.")
		return nil
	}

	fmt.Printf("Found %d matching chunks:\n\n", len(resp.Results))
	for i, r := range resp.Results {
		fmt.Printf("%2d. [%.3f] %s (chunk %d)\n", i+1, r.Score, r.DocumentName, r.Index)
		fmt.Printf("    %s\n", truncate(r.Text, 120))
	}

	if resp.Answer != "" {
		fmt.Printf("\nAnswer:\n%s\n", resp.Answer)
	}
	if resp.Warning != "" {
		fmt.Printf("\nWarning: %s\n", resp.Warning)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	docs, err := p.List(ctx)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  %s  (%d chunks, %d tokens, %s)\n",
			doc.ID, doc.Name, doc.ChunkCount, doc.TokenCount,
			doc.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
