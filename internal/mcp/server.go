package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docquery/docquery/internal/pipeline"
)

// Server wraps the MCP server with its pipeline dependency.
type Server struct {
	server   *mcp.Server
	pipeline *pipeline.Pipeline
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(p *pipeline.Pipeline) *Server {
	impl := &mcp.Implementation{
		Name:    "docquery-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search ingested documents semantically. Returns the most relevant chunks with similarity scores and a synthesized answer grounded in them.",
	}, makeSearchHandler(p))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a document: chunk it, embed every chunk, and index it for semantic search. Atomic; a failed ingest leaves nothing behind.",
	}, makeIngestHandler(p))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all ingested documents with token and chunk counts.",
	}, makeListHandler(p))

	return &Server{
		server:   server,
		pipeline: p,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
