package storage

import "time"

// Document is an ingested source text with its derived token count.
// TokenCount is the total number of whitespace-separated words across the
// document's chunks, computed at ingestion time.
type Document struct {
	ID         string
	Name       string
	Content    string
	TokenCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Chunk is one contiguous piece of a document together with its embedding.
// Index is the zero-based position of the chunk within the document.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
