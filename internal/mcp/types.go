// Package mcp exposes the document pipeline as Model Context Protocol
// tools.
package mcp

import "time"

// SearchInput defines the input parameters for the search_documents tool.
type SearchInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant document chunks"`
}

// SearchOutput contains ranked chunks and the synthesized answer.
type SearchOutput struct {
	// Results is the list of matching chunks, most similar first.
	Results []SearchResult `json:"results"`
	// Answer is the generated answer grounded in the results.
	Answer string `json:"answer,omitempty"`
	// Warning is set when answer generation failed; results are still valid.
	Warning string `json:"warning,omitempty"`
	// Message provides informational context (e.g. nothing matched).
	Message string `json:"message,omitempty"`
}

// SearchResult represents a single chunk match from semantic search.
type SearchResult struct {
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`
	// DocumentName is the source document's name.
	DocumentName string `json:"document_name"`
	// ChunkID identifies the matched chunk.
	ChunkID string `json:"chunk_id"`
	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int `json:"chunk_index"`
	// Text is the chunk content.
	Text string `json:"text"`
	// Similarity is the cosine similarity score.
	Similarity float64 `json:"similarity"`
}

// IngestInput defines the input parameters for the ingest_document tool.
type IngestInput struct {
	// Name is the document name; a .md suffix selects markdown-aware chunking.
	Name string `json:"name" jsonschema:"required,description=Document name. Names ending in .md are chunked at markdown section boundaries"`
	// Text is the full document content.
	Text string `json:"text" jsonschema:"required,description=The full document text to ingest"`
}

// IngestOutput reports a completed ingestion.
type IngestOutput struct {
	// DocumentID is the new document's identifier.
	DocumentID string `json:"document_id"`
	// ChunkCount is how many chunks were stored.
	ChunkCount int `json:"chunk_count"`
	// TokenCount is the total word count over the chunks.
	TokenCount int `json:"token_count"`
}

// ListInput defines the input parameters for the list_documents tool.
// The tool takes no parameters.
type ListInput struct{}

// DocumentEntry describes one stored document.
type DocumentEntry struct {
	// ID is the document identifier.
	ID string `json:"id"`
	// Name is the document name.
	Name string `json:"name"`
	// TokenCount is the total word count over the document's chunks.
	TokenCount int `json:"token_count"`
	// ChunkCount is how many chunks the document has.
	ChunkCount int `json:"chunk_count"`
	// CreatedAt is when the document was ingested.
	CreatedAt time.Time `json:"created_at"`
}

// ListOutput contains all stored documents.
type ListOutput struct {
	// Documents is the stored document summaries, newest first.
	Documents []DocumentEntry `json:"documents"`
	// Count is the total number of documents.
	Count int `json:"count"`
}
