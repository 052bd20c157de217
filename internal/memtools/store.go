package memtools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/rag-mcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// StoreTool handles the store_memory MCP tool.
type StoreTool struct {
	svc *service.Service
}

// NewStoreTool creates a StoreTool.
func NewStoreTool(svc *service.Service) *StoreTool {
	return &StoreTool{svc: svc}
}

// Definition returns the MCP tool definition for store_memory.
func (t *StoreTool) Definition() mcp.Tool {
	return mcp.NewTool("store_memory",
		mcp.WithDescription("Store new memory with metadata"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Content to store"),
		),
		scopeOption("Memory scope"),
		mcp.WithArray("tags",
			mcp.WithStringItems(),
			mcp.Description("Tags for categorization"),
		),
		projectPathOption(),
	)
}

// Handle processes the store_memory tool call.
func (t *StoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := requireString(req, "content")
	if err != nil {
		return nil, err
	}
	scope, err := scopeArg(req)
	if err != nil {
		return nil, err
	}
	tags := req.GetStringSlice("tags", []string{})

	m, err := t.svc.Remember(ctx, content, scope, tags)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("Memory stored successfully with ID: %s", m.ID)), nil
}
