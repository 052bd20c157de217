package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// notificationPrefix marks methods that never get a reply when sent
// without an id.
const notificationPrefix = "notifications/"

// request is one inbound JSON-RPC message. A null id is treated like an
// absent one.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *mcp.RequestId  `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *request) requestID() mcp.RequestId {
	if r.ID == nil {
		return mcp.NewRequestId(nil)
	}
	return *r.ID
}

// errNoResources is returned by resources/read.
var errNoResources = errors.New("No resources available")

// Serve reads line-delimited JSON-RPC requests from r and writes one
// response line per request to w, strictly in order. Each request is
// processed completely before the next line is read.
//
// Serve returns nil at end of input. A read or write failure, or a
// cancelled ctx, ends the loop with an error.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	in := bufio.NewReader(r)
	out := bufio.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := in.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if resp, ok := s.handleLine(ctx, line); ok {
				if err := writeLine(out, resp); err != nil {
					return fmt.Errorf("writing response: %w", err)
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			s.log.Debug("input closed")
			return nil
		}
		if readErr != nil {
			s.log.Error("reading request", "error", readErr)
			return fmt.Errorf("reading request: %w", readErr)
		}
	}
}

func writeLine(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}

// handleLine decodes and dispatches a single line. ok is false when no
// response must be written.
func (s *Server) handleLine(ctx context.Context, line []byte) (resp any, ok bool) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Error("failed to parse request", "error", err)
		return parseError(err), true
	}
	if req.Method == "" {
		s.log.Error("failed to parse request", "error", "missing method")
		return parseError(errors.New("missing field `method`")), true
	}

	if req.ID == nil && strings.HasPrefix(req.Method, notificationPrefix) {
		s.log.Debug("notification", "method", req.Method)
		return nil, false
	}

	result, err := s.dispatch(ctx, &req)
	if err != nil {
		s.log.Error("request failed", "method", req.Method, "error", err)
		return mcp.NewJSONRPCError(req.requestID(), mcp.INTERNAL_ERROR, "Internal error: "+err.Error(), nil), true
	}
	return mcp.NewJSONRPCResultResponse(req.requestID(), result), true
}

func parseError(err error) mcp.JSONRPCError {
	return mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.PARSE_ERROR, "Parse error: "+err.Error(), nil)
}

// dispatch routes a request by method. A panicking handler is reported as
// an ordinary error.
func (s *Server) dispatch(ctx context.Context, req *request) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic", "method", req.Method, "panic", r)
			result, err = nil, fmt.Errorf("panic while handling %s: %v", req.Method, r)
		}
	}()

	s.log.Debug("handling method", "method", req.Method)

	switch mcp.MCPMethod(req.Method) {
	case mcp.MethodInitialize:
		return s.initializeResult(), nil
	case mcp.MethodPing:
		return struct{}{}, nil
	case mcp.MethodToolsList:
		return s.listTools(), nil
	case mcp.MethodToolsCall:
		return s.callTool(ctx, req.Params)
	case mcp.MethodResourcesList:
		return mcp.ListResourcesResult{Resources: []mcp.Resource{}}, nil
	case mcp.MethodResourcesRead:
		return nil, errNoResources
	default:
		return nil, fmt.Errorf("Method not found: %s", req.Method)
	}
}

func (s *Server) initializeResult() mcp.InitializeResult {
	var caps mcp.ServerCapabilities
	caps.Tools = &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{}
	caps.Resources = &struct {
		Subscribe   bool `json:"subscribe,omitempty"`
		ListChanged bool `json:"listChanged,omitempty"`
	}{}

	return mcp.InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    caps,
		ServerInfo: mcp.Implementation{
			Name:    Name,
			Version: Version,
		},
		Instructions: serverInstructions(),
	}
}

func (s *Server) listTools() mcp.ListToolsResult {
	tools := make([]mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t.Tool)
	}
	return mcp.ListToolsResult{Tools: tools}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("missing params")
	}
	var params mcp.CallToolParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if params.Name == "" {
		return nil, errors.New("missing tool name")
	}

	tool, ok := s.byName[params.Name]
	if !ok {
		return nil, fmt.Errorf("Unknown tool: %s", params.Name)
	}

	req := mcp.CallToolRequest{Params: params}
	req.Method = string(mcp.MethodToolsCall)
	return tool.Handler(ctx, req)
}
