package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/rag-mcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the search_memory MCP tool.
type SearchTool struct {
	svc *service.Service
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(svc *service.Service) *SearchTool {
	return &SearchTool{svc: svc}
}

// Definition returns the MCP tool definition for search_memory.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_memory",
		mcp.WithDescription("Search memories using BM25 keyword search"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		scopeOption("Memory scope to search"),
		mcp.WithNumber("k",
			mcp.Description("Number of results to return"),
			mcp.DefaultNumber(float64(t.svc.DefaultK())),
		),
		projectPathOption(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the search_memory tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := requireString(req, "query")
	if err != nil {
		return nil, err
	}
	scope, err := scopeArg(req)
	if err != nil {
		return nil, err
	}
	k := intArg(req, "k", t.svc.DefaultK())

	results, err := t.svc.Recall(ctx, query, scope, k)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching memories found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results:\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "Score: %.2f | ID: %s\n%s\n\n---\n\n", r.Score, r.Memory.ID, r.Memory.Content)
	}
	return mcp.NewToolResultText(b.String()), nil
}
