// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Index backend names accepted in INDEX_BACKEND.
const (
	BackendMemory = "memory"
	BackendQdrant = "qdrant"
)

// Config holds everything the binaries need to wire the pipeline.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DBPath is the SQLite database file path.
	DBPath string

	// OllamaURL is the embedding service base URL.
	OllamaURL string

	// EmbeddingModel, EmbeddingDimension and EmbeddingTimeout configure
	// the embedding client.
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingTimeout   time.Duration

	// LLMBaseURL, LLMModel and LLMAPIKey configure answer synthesis. An
	// empty API key disables synthesis.
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// SimilarityThreshold and MaxResults tune retrieval.
	SimilarityThreshold float64
	MaxResults          int

	// ChunkSize and ChunkOverlap tune the word window.
	ChunkSize    int
	ChunkOverlap int

	// EmbedConcurrency bounds parallel embedding calls during ingestion.
	EmbedConcurrency int

	// IndexBackend selects the vector index: memory or qdrant.
	IndexBackend string

	// QdrantHost and QdrantPort locate the Qdrant gRPC endpoint.
	QdrantHost string
	QdrantPort int
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "data/docquery.db"),
		OllamaURL:           getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "nomic-embed-text:latest"),
		EmbeddingDimension:  getEnvInt("EMBEDDING_DIMENSION", 768),
		EmbeddingTimeout:    getEnvDuration("EMBEDDING_TIMEOUT", 30*time.Second),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.x.ai/v1"),
		LLMModel:            getEnv("LLM_MODEL", "grok-2-latest"),
		LLMAPIKey:           os.Getenv("LLM_API_KEY"),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.4),
		MaxResults:          getEnvInt("MAX_RESULTS", 15),
		ChunkSize:           getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 50),
		EmbedConcurrency:    getEnvInt("EMBED_CONCURRENCY", 4),
		IndexBackend:        getEnv("INDEX_BACKEND", BackendMemory),
		QdrantHost:          getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:          getEnvInt("QDRANT_PORT", 6334),
	}

	if cfg.IndexBackend != BackendMemory && cfg.IndexBackend != BackendQdrant {
		return nil, fmt.Errorf("invalid INDEX_BACKEND %q: want %q or %q",
			cfg.IndexBackend, BackendMemory, BackendQdrant)
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
