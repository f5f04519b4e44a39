package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quillforge/pdfrag/docstore"
)

type docRetriever interface {
	Search(ctx context.Context, query string, k int) ([]docstore.SearchResult, error)
	Ready() (bool, string)
	HasIndex() bool
}

func NewRagServer(retriever docRetriever) *server.MCPServer {
	searchTool := mcp.NewTool("rag_search",
		mcp.WithDescription("Search the local PDF library and get excerpts relevant to a query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("How many results to return"),
		),
		mcp.WithString("style",
			mcp.Description("Citation style for the results: ieee, apa or vancouver"),
		))

	statusTool := mcp.NewTool("rag_status",
		mcp.WithDescription("Report whether the local PDF library is indexed and ready to search"))

	srv := server.NewMCPServer("pdfrag", "0.1.0", server.WithToolCapabilities(false))
	srv.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if !retriever.HasIndex() {
			return mcp.NewToolResultText("Local PDF library not available. Run 'pdfrag index' first to index your PDFs."), nil
		}

		results, err := retriever.Search(ctx, q, request.GetInt("top_k", 0))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if style := request.GetString("style", ""); style != "" {
			return mcp.NewToolResultText(FormatForCitation(results, style)), nil
		}

		return mcp.NewToolResultText(FormatSearchResults(results)), nil
	})

	srv.AddTool(statusTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		_, msg := retriever.Ready()
		return mcp.NewToolResultText(msg), nil
	})

	return srv
}
