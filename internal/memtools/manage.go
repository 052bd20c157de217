package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/rag-mcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// Default page for list_memories.
const (
	defaultListLimit  = 50
	defaultListOffset = 0
)

// ─── ListTool ────────────────────────────────────────────────────────────────

// ListTool handles the list_memories MCP tool.
type ListTool struct {
	svc *service.Service
}

// NewListTool creates a ListTool.
func NewListTool(svc *service.Service) *ListTool {
	return &ListTool{svc: svc}
}

// Definition returns the MCP tool definition for list_memories.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("list_memories",
		mcp.WithDescription("List memories with pagination"),
		scopeOption("Memory scope to list"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of memories to return"),
			mcp.DefaultNumber(defaultListLimit),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of memories to skip"),
			mcp.DefaultNumber(defaultListOffset),
		),
		projectPathOption(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle processes the list_memories tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope, err := scopeArg(req)
	if err != nil {
		return nil, err
	}
	limit := intArg(req, "limit", defaultListLimit)
	offset := intArg(req, "offset", defaultListOffset)

	list, err := t.svc.List(ctx, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No memories found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories:\n\n", len(list))
	for _, m := range list {
		fmt.Fprintf(&b, "ID: %s | Tags: %s\n%s\n\n---\n\n", m.ID, strings.Join(m.Metadata.Tags, ", "), m.Content)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteTool ──────────────────────────────────────────────────────────────

// DeleteTool handles the delete_memory MCP tool.
type DeleteTool struct {
	svc *service.Service
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(svc *service.Service) *DeleteTool {
	return &DeleteTool{svc: svc}
}

// Definition returns the MCP tool definition for delete_memory.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_memory",
		mcp.WithDescription("Delete memory by ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the memory to delete"),
		),
		scopeOption("Memory scope holding the memory"),
		projectPathOption(),
		mcp.WithDestructiveHintAnnotation(true),
	)
}

// Handle processes the delete_memory tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "id")
	if err != nil {
		return nil, err
	}
	scope, err := scopeArg(req)
	if err != nil {
		return nil, err
	}

	deleted, err := t.svc.Forget(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return mcp.NewToolResultText(fmt.Sprintf("Memory %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Memory %s deleted successfully", id)), nil
}

// ─── ClearSessionTool ────────────────────────────────────────────────────────

// ClearSessionTool handles the clear_session MCP tool.
type ClearSessionTool struct {
	svc *service.Service
}

// NewClearSessionTool creates a ClearSessionTool.
func NewClearSessionTool(svc *service.Service) *ClearSessionTool {
	return &ClearSessionTool{svc: svc}
}

// Definition returns the MCP tool definition for clear_session.
func (t *ClearSessionTool) Definition() mcp.Tool {
	return mcp.NewTool("clear_session",
		mcp.WithDescription("Clear all session memories"),
		mcp.WithDestructiveHintAnnotation(true),
	)
}

// Handle processes the clear_session tool call. Arguments are ignored.
func (t *ClearSessionTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.svc.ClearSession()
	return mcp.NewToolResultText("Session memories cleared successfully"), nil
}
