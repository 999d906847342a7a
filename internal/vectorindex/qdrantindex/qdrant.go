// Package qdrantindex implements the vector index against a Qdrant server
// over gRPC. Similarity is delegated to Qdrant's cosine distance so the
// scan happens storage-side instead of in process memory.
package qdrantindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/docquery/docquery/internal/vectorindex"
)

// ErrUnreachable indicates the Qdrant server failed its startup health check.
var ErrUnreachable = errors.New("qdrant unreachable")

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "docquery_chunks"

// Index stores chunk vectors in a Qdrant collection.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

var _ vectorindex.Index = (*Index)(nil)

// New connects to Qdrant, verifies it is healthy, and ensures the
// collection exists with cosine distance at the given dimension. The health
// check retries with exponential backoff so a server still starting up does
// not fail the process.
func New(ctx context.Context, host string, port int, collection string, dimension int) (*Index, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	idx := &Index{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}

	if err := idx.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if err := idx.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return idx, nil
}

// healthCheckWithRetry probes Qdrant with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (idx *Index) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return idx.Health(ctx)
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (idx *Index) Health(ctx context.Context) error {
	result, err := idx.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// ensureCollection creates the collection if it does not exist. Idempotent.
func (idx *Index) ensureCollection(ctx context.Context) error {
	collections, err := idx.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == idx.collection {
			return nil
		}
	}

	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(idx.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Document deletes filter on document_id; without the index Qdrant
	// falls back to a full scan.
	_, err = idx.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: idx.collection,
		FieldName:      "document_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create document_id index: %w", err)
	}

	return nil
}

// Close closes the underlying gRPC connection.
func (idx *Index) Close() error {
	if idx.client != nil {
		return idx.client.Close()
	}
	return nil
}

// Insert upserts a single chunk vector with its payload.
func (idx *Index) Insert(ctx context.Context, ref vectorindex.ChunkRef, vector []float32) error {
	if len(vector) != idx.dimension {
		return fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
			vectorindex.ErrDimensionMismatch, ref.ChunkID, len(vector), idx.dimension)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(ref.ChunkID),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			"document_id":   ref.DocumentID,
			"document_name": ref.DocumentName,
			"chunk_index":   ref.Index,
			"text":          ref.Text,
		}),
	}

	return idx.upsertWithRetry(ctx, []*qdrant.PointStruct{point})
}

// upsertWithRetry performs the upsert with exponential backoff.
func (idx *Index) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: idx.collection,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Query runs a storage-side cosine search and post-filters to the strict
// threshold. Qdrant's score_threshold is inclusive, so scores exactly equal
// to the threshold are dropped here; ties are re-sorted by ascending chunk
// ID to keep ordering reproducible.
func (idx *Index) Query(ctx context.Context, vector []float32, k int, threshold float64) ([]vectorindex.Result, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			vectorindex.ErrDimensionMismatch, len(vector), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	scoreThreshold := float32(threshold)
	points, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		ScoreThreshold: &scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	results := make([]vectorindex.Result, 0, len(points))
	for _, point := range points {
		score := float64(point.Score)
		if score <= threshold {
			continue
		}
		payload := point.Payload
		results = append(results, vectorindex.Result{
			ChunkRef: vectorindex.ChunkRef{
				ChunkID:      point.Id.GetUuid(),
				DocumentID:   payload["document_id"].GetStringValue(),
				DocumentName: payload["document_name"].GetStringValue(),
				Index:        int(payload["chunk_index"].GetIntegerValue()),
				Text:         payload["text"].GetStringValue(),
			},
			Score: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	return results, nil
}

// DeleteDocument removes every point whose payload matches the document ID.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

// Count reports the number of points in the collection.
func (idx *Index) Count(ctx context.Context) (int, error) {
	collection, err := idx.client.GetCollectionInfo(ctx, idx.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection: %w", err)
	}
	return int(collection.GetPointsCount()), nil
}
