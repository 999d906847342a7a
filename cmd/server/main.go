// Package main provides the DocQuery server: REST API plus MCP tools over
// one pipeline.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docquery/docquery/internal/api"
	"github.com/docquery/docquery/internal/config"
	"github.com/docquery/docquery/internal/embedding"
	"github.com/docquery/docquery/internal/llm"
	mcpserver "github.com/docquery/docquery/internal/mcp"
	"github.com/docquery/docquery/internal/pipeline"
	"github.com/docquery/docquery/internal/storage"
	"github.com/docquery/docquery/internal/synthesizer"
	"github.com/docquery/docquery/internal/vectorindex"
	"github.com/docquery/docquery/internal/vectorindex/memory"
	"github.com/docquery/docquery/internal/vectorindex/qdrantindex"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	index, cleanup, err := buildIndex(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize vector index: %v", err)
	}
	defer cleanup()

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
	} else {
		log.Println("LLM_API_KEY not set, answer synthesis disabled")
	}

	p := pipeline.New(store, index, embedder, synth, pipeline.Config{
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MaxResults:          cfg.MaxResults,
		EmbedConcurrency:    cfg.EmbedConcurrency,
	}, logger)

	// The memory backend starts empty; rebuild it from storage.
	if cfg.IndexBackend == config.BackendMemory {
		if err := p.WarmIndex(ctx); err != nil {
			log.Fatalf("failed to warm vector index: %v", err)
		}
	}

	handler := api.NewHandler(p, store, index, logger)
	router := api.NewRouter(handler, logger)

	server := mcpserver.NewServer(p)
	router.PathPrefix("/mcp").Handler(mcpserver.NewHTTPHandler(server, nil))
	router.PathPrefix("/").Handler(mcpserver.NewLandingHandler())

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	// Stdio mode runs MCP over stdin/stdout for local clients, with the
	// HTTP surface in the background.
	if os.Getenv("MCP_STDIO") == "true" {
		go func() {
			log.Printf("Starting HTTP server on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP server error: %v", err)
			}
		}()

		log.Println("Starting DocQuery MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
		return
	}

	log.Printf("Starting server on %s (API at /api, MCP at /mcp, health at /health)", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}
}

// buildIndex constructs the configured vector index backend.
func buildIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, func(), error) {
	if cfg.IndexBackend == config.BackendQdrant {
		idx, err := qdrantindex.New(ctx, cfg.QdrantHost, cfg.QdrantPort,
			qdrantindex.DefaultCollection, cfg.EmbeddingDimension)
		if err != nil {
			return nil, nil, err
		}
		return idx, func() { idx.Close() }, nil
	}
	return memory.New(cfg.EmbeddingDimension, nil), func() {}, nil
}
