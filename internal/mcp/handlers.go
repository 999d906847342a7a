package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docquery/docquery/internal/pipeline"
)

// makeSearchHandler creates the search_documents tool handler. It runs the
// full retrieval flow: embed query, rank chunks, synthesize an answer.
func makeSearchHandler(p *pipeline.Pipeline) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		resp, err := p.Search(ctx, input.Query)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("search failed: %w", err)
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

		if len(results) == 0 {
			return nil, SearchOutput{
				Results: []SearchResult{},
				Message: "No matching documents found. Try broader search terms.",
			}, nil
		}

		return nil, SearchOutput{
			Results: results,
			Answer:  resp.Answer,
			Warning: resp.Warning,
		}, nil
	}
}

// makeIngestHandler creates the ingest_document tool handler.
func makeIngestHandler(p *pipeline.Pipeline) func(
	context.Context, *mcp.CallToolRequest, IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (
		*mcp.CallToolResult, IngestOutput, error,
	) {
		result, err := p.Ingest(ctx, input.Name, input.Text)
		if err != nil {
			return nil, IngestOutput{}, fmt.Errorf("ingest failed: %w", err)
		}

		return nil, IngestOutput{
			DocumentID: result.DocumentID,
			ChunkCount: result.ChunkCount,
			TokenCount: result.TokenCount,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(p *pipeline.Pipeline) func(
	context.Context, *mcp.CallToolRequest, ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (
		*mcp.CallToolResult, ListOutput, error,
	) {
		docs, err := p.List(ctx)
		if err != nil {
			return nil, ListOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		entries := make([]DocumentEntry, len(docs))
		for i, doc := range docs {
			entries[i] = DocumentEntry{
				ID:         doc.ID,
				Name:       doc.Name,
				TokenCount: doc.TokenCount,
				ChunkCount: doc.ChunkCount,
				CreatedAt:  doc.CreatedAt,
			}
		}

		return nil, ListOutput{
			Documents: entries,
			Count:     len(entries),
		}, nil
	}
}
