package api

import "time"

// IngestRequest is the body of POST /api/documents.
type IngestRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// IngestResponse reports a completed ingestion.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	ChunkCount int    `json:"chunk_count"`
	TokenCount int    `json:"token_count"`
}

// SearchRequest is the body of POST /api/documents/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResult is one ranked chunk in a search response.
type SearchResult struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkID      string  `json:"chunk_id"`
	ChunkIndex   int     `json:"chunk_index"`
	Text         string  `json:"text"`
	Similarity   float64 `json:"similarity"`
}

// SearchResponse carries ranked results and, when synthesis succeeded, the
// generated answer. Warning is set when synthesis failed.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Answer  string         `json:"answer,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

// ChunkSummary describes one chunk in a document listing.
type ChunkSummary struct {
	ID     string `json:"id"`
	Index  int    `json:"index"`
	Length int    `json:"length"`
}

// DocumentSummary describes one document in GET /api/documents. Text is
// truncated.
type DocumentSummary struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Text       string         `json:"text"`
	TokenCount int            `json:"token_count"`
	ChunkCount int            `json:"chunk_count"`
	Chunks     []ChunkSummary `json:"chunks"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Vectors   int    `json:"vectors"`
	Error     string `json:"error,omitempty"`
}
