// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ryana vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ryanahq/ryana/internal/search"
	"github.com/ryanahq/ryana/internal/store"
)

// Server wraps the MCP server with Ryana tools.
type Server struct {
	mcp    *server.MCPServer
	store  *store.Store
	search *search.Service
}

// New creates a new MCP server with all Ryana tools registered.
func New(st *store.Store, se *search.Service) *Server {
	s := &Server{store: st, search: se}

	s.mcp = server.NewMCPServer(
		"Ryana",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_snippets",
		mcp.WithDescription("Search code snippets and error logs. Every whitespace-separated "+
			"term must appear somewhere in a snippet for it to match; results are ranked by relevance."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchSnippets)

	s.mcp.AddTool(mcp.NewTool("get_snippet",
		mcp.WithDescription("Read a single snippet, including its code, tags, and error entries."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
	), s.getSnippet)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List all tags with their usage counts, most used first."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_statistics",
		mcp.WithDescription("Vault-wide statistics: totals per type, favourites, top tags, "+
			"most used language and subject, view and copy counters."),
	), s.getStatistics)

	s.mcp.AddTool(mcp.NewTool("get_snapshot_format",
		mcp.WithDescription("Returns the canonical JSON snapshot format used by export and import. "+
			"Call this before producing a snapshot for the import tool or API."),
	), s.getSnapshotFormat)

	// Resource: snapshot format contract.
	s.mcp.AddResource(
		mcp.NewResource("ryana://snapshot-format", "Snapshot Format Contract",
			mcp.WithResourceDescription("Canonical JSON snapshot format that exports produce and imports accept."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSnapshotFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchSnippets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.search.AdvancedSearch(ctx, search.Criteria{Query: query})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) > 20 {
		results = results[:20]
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSnippet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sn, err := s.store.GetSnippet(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sn == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(sn, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.store.GetAllTags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(tags, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getStatistics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.search.GetStatistics(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSnapshotFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SnapshotFormatContract), nil
}

func (s *Server) readSnapshotFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ryana://snapshot-format",
			MIMEType: "text/markdown",
			Text:     SnapshotFormatContract,
		},
	}, nil
}
