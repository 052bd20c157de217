// Package memtools provides the MCP tool handlers for the memory store.
//
// Each tool follows the same pattern:
// - A struct with its dependencies (the service) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Invalid arguments and storage failures are returned as Go errors; the
// dispatcher turns them into JSON-RPC error responses.
package memtools

import (
	"errors"
	"fmt"
	"math"

	"github.com/HendryAvila/rag-mcp/internal/memory"
	"github.com/HendryAvila/rag-mcp/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ErrMissingArgument is returned when a required argument is absent or has
// the wrong JSON type.
var ErrMissingArgument = errors.New("missing argument")

// Tools returns the catalog of memory tools in the order they are listed.
func Tools(svc *service.Service) []server.ServerTool {
	store := NewStoreTool(svc)
	search := NewSearchTool(svc)
	list := NewListTool(svc)
	del := NewDeleteTool(svc)
	clearTool := NewClearSessionTool(svc)

	return []server.ServerTool{
		{Tool: store.Definition(), Handler: store.Handle},
		{Tool: search.Definition(), Handler: search.Handle},
		{Tool: list.Definition(), Handler: list.Handle},
		{Tool: del.Definition(), Handler: del.Handle},
		{Tool: clearTool.Definition(), Handler: clearTool.Handle},
	}
}

// ─── Shared schema options ───────────────────────────────────────────────────

func scopeOption(desc string) mcp.ToolOption {
	return mcp.WithString("scope",
		mcp.Required(),
		mcp.Enum(memory.ScopeValues()...),
		mcp.Description(desc),
	)
}

func projectPathOption() mcp.ToolOption {
	return mcp.WithString("project_path",
		mcp.Description("Project path (required for project scope)"),
	)
}

// ─── Argument extraction ─────────────────────────────────────────────────────

// requireString returns a string argument, failing when it is absent or
// not a JSON string.
func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	return v, nil
}

// scopeArg resolves the scope and project_path arguments.
func scopeArg(req mcp.CallToolRequest) (memory.Scope, error) {
	name, err := requireString(req, "scope")
	if err != nil {
		return memory.Scope{}, err
	}
	return memory.ParseScope(name, req.GetString("project_path", ""))
}

// intArg extracts a non-negative integer argument, returning defaultVal if
// the key is missing, negative, fractional or not a number (JSON numbers
// are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok || v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return defaultVal
	}
	return int(v)
}
