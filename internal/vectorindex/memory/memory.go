// Package memory provides a brute-force in-memory vector index.
//
// Every query scans all stored vectors, O(n) per query. That is fine at
// small corpus scale; past a few hundred thousand chunks an approximate
// nearest-neighbor structure should replace this backend behind the same
// interface.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/docquery/docquery/internal/vectorindex"
)

// Index is a thread-safe brute-force similarity index.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	logger    *slog.Logger
}

type entry struct {
	ref    vectorindex.ChunkRef
	vector []float32
}

var _ vectorindex.Index = (*Index)(nil)

// New creates an empty index for vectors of the given dimension.
func New(dimension int, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		dimension: dimension,
		logger:    logger,
	}
}

// Insert stores a vector keyed by chunk identity.
func (idx *Index) Insert(ctx context.Context, ref vectorindex.ChunkRef, vector []float32) error {
	if len(vector) != idx.dimension {
		return fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
			vectorindex.ErrDimensionMismatch, ref.ChunkID, len(vector), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, entry{ref: ref, vector: vector})
	return nil
}

// Query scans all stored vectors and returns at most k entries scoring
// strictly above threshold, sorted by descending score with ties broken by
// ascending chunk ID. Zero-norm vectors cannot be ranked by cosine
// similarity; they are skipped with a warning rather than silently dropped.
func (idx *Index) Query(ctx context.Context, vector []float32, k int, threshold float64) ([]vectorindex.Result, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			vectorindex.ErrDimensionMismatch, len(vector), idx.dimension)
	}
	if vectorindex.IsZero(vector) {
		idx.logger.Warn("query vector has zero norm, returning no results")
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]vectorindex.Result, 0, k)
	for _, e := range idx.entries {
		if vectorindex.IsZero(e.vector) {
			idx.logger.Warn("skipping zero-norm vector",
				"chunk_id", e.ref.ChunkID, "document_id", e.ref.DocumentID)
			continue
		}
		score := vectorindex.CosineSimilarity(vector, e.vector)
		if score > threshold {
			results = append(results, vectorindex.Result{ChunkRef: e.ref, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteDocument removes every vector belonging to a document.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	for _, e := range idx.entries {
		if e.ref.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	idx.entries = kept
	return nil
}

// Count reports the number of stored vectors.
func (idx *Index) Count(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}
