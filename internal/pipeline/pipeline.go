// Package pipeline orchestrates the ingestion and retrieval flows: it owns
// the order of operations, the retry policy, and the rollback guarantees.
// The components it composes stay policy-free.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docquery/docquery/internal/chunker"
	"github.com/docquery/docquery/internal/embedding"
	"github.com/docquery/docquery/internal/storage"
	"github.com/docquery/docquery/internal/vectorindex"
)

// Defaults for retrieval and ingestion tuning.
const (
	DefaultSimilarityThreshold = 0.4
	DefaultMaxResults          = 15
	DefaultEmbedConcurrency    = 4
)

// Embedder is the slice of the embedding client the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Synthesizer generates an answer from ranked results. Implemented by
// synthesizer.Synthesizer; nil disables answer generation.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []vectorindex.Result) (string, error)
}

// Config holds pipeline tuning parameters. Zero values fall back to
// defaults.
type Config struct {
	// ChunkSize and ChunkOverlap configure the word window.
	ChunkSize    int
	ChunkOverlap int

	// SimilarityThreshold is the strict lower bound on result scores.
	SimilarityThreshold float64

	// MaxResults caps how many results a search returns.
	MaxResults int

	// EmbedConcurrency bounds parallel embedding calls during ingestion.
	EmbedConcurrency int
}

// IngestResult reports what a successful ingestion produced.
type IngestResult struct {
	DocumentID string
	Name       string
	ChunkCount int
	TokenCount int
	Duration   time.Duration
}

// SearchResponse carries ranked results plus the synthesized answer.
// Warning is set instead of Answer when synthesis fails; the results are
// still valid.
type SearchResponse struct {
	Results []vectorindex.Result
	Answer  string
	Warning string
}

// ChunkInfo summarizes one stored chunk for listings.
type ChunkInfo struct {
	ID     string
	Index  int
	Length int
}

// DocumentInfo summarizes one stored document for listings. Text is
// truncated to 200 characters.
type DocumentInfo struct {
	ID         string
	Name       string
	Text       string
	TokenCount int
	ChunkCount int
	Chunks     []ChunkInfo
	CreatedAt  time.Time
}

// Pipeline wires the chunker, embedder, store, index and synthesizer into
// the two top-level flows.
type Pipeline struct {
	store    *storage.Store
	index    vectorindex.Index
	embedder Embedder
	synth    Synthesizer
	markdown *chunker.Markdown
	cfg      Config
	logger   *slog.Logger
}

// New creates a pipeline, filling unset config with defaults.
func New(
	store *storage.Store,
	index vectorindex.Index,
	embedder Embedder,
	synth Synthesizer,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = chunker.DefaultOverlap
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = DefaultEmbedConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    store,
		index:    index,
		embedder: embedder,
		synth:    synth,
		markdown: chunker.NewMarkdown(),
		cfg:      cfg,
		logger:   logger,
	}
}

// Ingest chunks, embeds, persists and indexes a document. The operation is
// atomic: on any failure, including context cancellation, no trace of the
// document survives in storage or the index.
func (p *Pipeline) Ingest(ctx context.Context, name, text string) (*IngestResult, error) {
	start := time.Now()

	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	chunks, err := p.chunk(name, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}

	p.logger.Debug("chunked document", "name", name, "chunks", len(chunks))

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}

	docID := uuid.New().String()
	now := time.Now().UTC()

	tokenCount := 0
	storageChunks := make([]storage.Chunk, len(chunks))
	for i, content := range chunks {
		tokenCount += len(strings.Fields(content))
		storageChunks[i] = storage.Chunk{
			ID:         uuid.New().String(),
			DocumentID: docID,
			Index:      i,
			Content:    content,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	doc := &storage.Document{
		ID:         docID,
		Name:       name,
		Content:    text,
		TokenCount: tokenCount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := p.store.CreateDocument(ctx, doc, storageChunks); err != nil {
		return nil, fmt.Errorf("%w: persisting document: %w", ErrIngestion, err)
	}

	for i, chunk := range storageChunks {
		ref := vectorindex.ChunkRef{
			ChunkID:      chunk.ID,
			DocumentID:   docID,
			DocumentName: name,
			Index:        chunk.Index,
			Text:         chunk.Content,
		}
		if err := p.index.Insert(ctx, ref, vectors[i]); err != nil {
			p.rollback(ctx, docID)
			return nil, fmt.Errorf("%w: indexing chunk %d: %w", ErrIngestion, i, err)
		}
	}

	result := &IngestResult{
		DocumentID: docID,
		Name:       name,
		ChunkCount: len(chunks),
		TokenCount: tokenCount,
		Duration:   time.Since(start),
	}

	p.logger.Info("ingested document",
		"document_id", docID,
		"name", name,
		"chunks", result.ChunkCount,
		"tokens", result.TokenCount,
		"duration", result.Duration,
	)
	return result, nil
}

// chunk picks the strategy by file extension: markdown sources split at
// section boundaries, everything else uses the word window.
func (p *Pipeline) chunk(name, text string) ([]string, error) {
	if strings.HasSuffix(strings.ToLower(name), ".md") {
		return p.markdown.Chunk(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	}
	return chunker.Words(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
}

// embedChunks embeds all chunks with bounded parallelism. Each result is
// written to the slot matching its chunk ordinal, so output order never
// depends on goroutine scheduling.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.EmbedConcurrency)

	for i, text := range chunks {
		g.Go(func() error {
			vec, err := p.embedWithRetry(gctx, text)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// embedWithRetry retries transient embedding failures with exponential
// backoff. Anything that is not an embedding service error, context
// cancellation included, aborts immediately.
func (p *Pipeline) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 5 * time.Second
	exponentialBackoff.MaxElapsedTime = 15 * time.Second

	var vec []float32
	operation := func() error {
		var err error
		vec, err = p.embedder.Embed(ctx, text)
		if err == nil {
			return nil
		}
		if errors.Is(err, embedding.ErrService) && ctx.Err() == nil {
			p.logger.Warn("embedding attempt failed, retrying", "error", err)
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx)); err != nil {
		return nil, err
	}
	return vec, nil
}

// rollback erases all traces of a partially ingested document. It runs
// detached from the caller's context so a cancellation that caused the
// failure cannot also prevent the cleanup.
func (p *Pipeline) rollback(ctx context.Context, docID string) {
	cleanupCtx := context.WithoutCancel(ctx)

	if err := p.index.DeleteDocument(cleanupCtx, docID); err != nil {
		p.logger.Error("rollback: failed to remove vectors", "document_id", docID, "error", err)
	}
	if err := p.store.DeleteDocument(cleanupCtx, docID); err != nil && !errors.Is(err, storage.ErrDocumentNotFound) {
		p.logger.Error("rollback: failed to remove document", "document_id", docID, "error", err)
	}
	p.logger.Info("rolled back partial ingestion", "document_id", docID)
}

// Search embeds the query, ranks stored chunks and, when anything matched,
// asks the synthesizer for an answer. A synthesis failure is reported as a
// warning alongside the results, never as an error.
func (p *Pipeline) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	// Query embedding is interactive; retrying would stack latency on a
	// user-facing call, so failures surface immediately.
	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", ErrSearch, err)
	}

	results, err := p.index.Query(ctx, vec, p.cfg.MaxResults, p.cfg.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}

	resp := &SearchResponse{Results: results}
	if len(results) == 0 {
		p.logger.Info("search matched nothing", "query_length", len(query))
		return resp, nil
	}

	if p.synth == nil {
		return resp, nil
	}

	answer, err := p.synth.Synthesize(ctx, query, results)
	if err != nil {
		p.logger.Warn("synthesis failed, returning results only", "error", err)
		resp.Warning = "answer generation unavailable, returning raw results"
		return resp, nil
	}
	resp.Answer = answer

	p.logger.Info("search complete",
		"query_length", len(query),
		"results", len(results),
		"answered", answer != "",
	)
	return resp, nil
}

// List returns summaries of all stored documents with their chunks.
func (p *Pipeline) List(ctx context.Context) ([]DocumentInfo, error) {
	docs, err := p.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		chunks, err := p.store.GetChunks(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("loading chunks for %s: %w", doc.ID, err)
		}

		chunkInfos := make([]ChunkInfo, len(chunks))
		for i, chunk := range chunks {
			chunkInfos[i] = ChunkInfo{
				ID:     chunk.ID,
				Index:  chunk.Index,
				Length: len(chunk.Content),
			}
		}

		infos = append(infos, DocumentInfo{
			ID:         doc.ID,
			Name:       doc.Name,
			Text:       truncate(doc.Content, 200),
			TokenCount: doc.TokenCount,
			ChunkCount: len(chunks),
			Chunks:     chunkInfos,
			CreatedAt:  doc.CreatedAt,
		})
	}
	return infos, nil
}

// Delete removes a document from storage and the index. Returns
// storage.ErrDocumentNotFound for unknown IDs.
func (p *Pipeline) Delete(ctx context.Context, docID string) error {
	if err := p.store.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	if err := p.index.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("removing vectors for %s: %w", docID, err)
	}

	p.logger.Info("deleted document", "document_id", docID)
	return nil
}

// WarmIndex rebuilds the vector index from storage. Used at startup with
// the in-memory backend, whose contents do not survive restarts.
func (p *Pipeline) WarmIndex(ctx context.Context) error {
	docs, err := p.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[doc.ID] = doc.Name
	}

	chunks, err := p.store.AllChunks(ctx)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			p.logger.Warn("skipping chunk without embedding", "chunk_id", chunk.ID)
			continue
		}
		ref := vectorindex.ChunkRef{
			ChunkID:      chunk.ID,
			DocumentID:   chunk.DocumentID,
			DocumentName: names[chunk.DocumentID],
			Index:        chunk.Index,
			Text:         chunk.Content,
		}
		if err := p.index.Insert(ctx, ref, chunk.Embedding); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
		}
	}

	p.logger.Info("warmed vector index", "documents", len(docs), "chunks", len(chunks))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
