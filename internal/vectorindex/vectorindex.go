// Package vectorindex defines the similarity index contract shared by the
// in-memory brute-force backend and the Qdrant backend.
package vectorindex

import (
	"context"
	"errors"
	"math"
)

// ErrDimensionMismatch indicates a vector whose length differs from the
// index dimension. This is a configuration error and is never retried.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ChunkRef identifies a stored chunk and carries the denormalized fields
// needed to render a search result without a storage round trip.
type ChunkRef struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	Index        int
	Text         string
}

// Result is a single similarity match. Score is cosine similarity in [-1, 1].
type Result struct {
	ChunkRef
	Score float64
}

// Index stores chunk vectors and answers top-K similarity queries.
type Index interface {
	// Insert stores a vector keyed by chunk identity.
	Insert(ctx context.Context, ref ChunkRef, vector []float32) error

	// Query returns at most k entries whose cosine similarity to vector
	// exceeds threshold, sorted by descending score. Ties break by
	// ascending chunk ID so results are reproducible.
	Query(ctx context.Context, vector []float32, k int, threshold float64) ([]Result, error)

	// DeleteDocument removes every vector belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Count reports the number of stored vectors.
	Count(ctx context.Context) (int, error)
}

// CosineSimilarity computes the dot product of a and b divided by the
// product of their L2 norms. The result lies in [-1, 1]; a vector compared
// with itself scores 1 within floating-point tolerance. A zero-norm operand
// yields 0 — callers decide how to report the degenerate case.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// IsZero reports whether the vector has zero L2 norm.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
