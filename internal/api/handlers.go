// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/docquery/docquery/internal/embedding"
	"github.com/docquery/docquery/internal/pipeline"
	"github.com/docquery/docquery/internal/storage"
	"github.com/docquery/docquery/internal/vectorindex"
)

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	pipeline *pipeline.Pipeline
	store    *storage.Store
	index    vectorindex.Index
	logger   *slog.Logger
}

// NewHandler creates a Handler over the given pipeline. Store and index
// are used directly only by the health endpoint.
func NewHandler(p *pipeline.Pipeline, store *storage.Store, index vectorindex.Index, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline: p,
		store:    store,
		index:    index,
		logger:   logger,
	}
}

// HandleIngest handles POST /api/documents.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), req.Name, req.Text)
	if err != nil {
		h.sendPipelineError(w, err)
		return
	}

	sendJSON(w, http.StatusCreated, IngestResponse{
		DocumentID: result.DocumentID,
		Name:       result.Name,
		ChunkCount: result.ChunkCount,
		TokenCount: result.TokenCount,
	})
}

// HandleSearch handles POST /api/documents/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	resp, err := h.pipeline.Search(r.Context(), req.Query)
	if err != nil {
		h.sendPipelineError(w, err)
		return
	}

	results := make([]SearchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = SearchResult{
			DocumentID:   r.DocumentID,
			DocumentName: r.DocumentName,
			ChunkID:      r.ChunkID,
			ChunkIndex:   r.Index,
			Text:         r.Text,
			Similarity:   r.Score,
		}
	}

	sendJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Answer:  resp.Answer,
		Warning: resp.Warning,
	})
}

// HandleList handles GET /api/documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.pipeline.List(r.Context())
	if err != nil {
		h.logger.Error("list documents failed", "error", err)
		sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list documents"})
		return
	}

	summaries := make([]DocumentSummary, len(docs))
	for i, doc := range docs {
		chunks := make([]ChunkSummary, len(doc.Chunks))
		for j, chunk := range doc.Chunks {
			chunks[j] = ChunkSummary{ID: chunk.ID, Index: chunk.Index, Length: chunk.Length}
		}
		summaries[i] = DocumentSummary{
			ID:         doc.ID,
			Name:       doc.Name,
			Text:       doc.Text,
			TokenCount: doc.TokenCount,
			ChunkCount: doc.ChunkCount,
			Chunks:     chunks,
			CreatedAt:  doc.CreatedAt,
		}
	}

	sendJSON(w, http.StatusOK, summaries)
}

// HandleDelete handles DELETE /api/documents/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.pipeline.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		sendJSON(w, http.StatusNotFound, ErrorResponse{Error: "document not found"})
		return
	}
	if err != nil {
		h.logger.Error("delete failed", "document_id", id, "error", err)
		sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to delete document"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /health. It probes storage and the index with
// a short timeout so a wedged backend turns the status red instead of
// hanging the probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	docs, err := h.store.CountDocuments(ctx)
	if err != nil {
		sendJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Error: err.Error()})
		return
	}

	vectors, err := h.index.Count(ctx)
	if err != nil {
		sendJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Error: err.Error()})
		return
	}

	sendJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Documents: docs,
		Vectors:   vectors,
	})
}

// sendPipelineError maps pipeline errors to HTTP status codes: validation
// failures are the caller's fault, embedding service failures are a bad
// gateway, everything else is internal.
func (h *Handler) sendPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyText),
		errors.Is(err, pipeline.ErrEmptyName),
		errors.Is(err, pipeline.ErrEmptyQuery):
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, embedding.ErrService):
		h.logger.Error("embedding service failure", "error", err)
		sendJSON(w, http.StatusBadGateway, ErrorResponse{Error: "embedding service unavailable"})
	default:
		h.logger.Error("pipeline failure", "error", err)
		sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// sendJSON sends a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}
