// Package server wires the MCP components and runs the stdio dispatcher.
//
// This is the composition root: it resolves configuration, creates the
// service (store + index) and injects it into the memory tools. No business
// logic lives here, only wiring and protocol framing.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/rag-mcp/internal/config"
	"github.com/HendryAvila/rag-mcp/internal/logging"
	"github.com/HendryAvila/rag-mcp/internal/memory"
	"github.com/HendryAvila/rag-mcp/internal/memtools"
	"github.com/HendryAvila/rag-mcp/internal/search"
	"github.com/HendryAvila/rag-mcp/internal/semantic"
	"github.com/HendryAvila/rag-mcp/internal/service"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Name is reported as serverInfo.name.
const Name = "rag-mcp"

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2024-11-05"

// Version is set at build time via ldflags.
var Version = "0.1.0"

// Server dispatches JSON-RPC requests to the memory tools.
type Server struct {
	svc    *service.Service
	tools  []mcpserver.ServerTool
	byName map[string]mcpserver.ServerTool
	log    *slog.Logger
}

// NewService builds the service described by cfg.
func NewService(cfg *config.Config, log *slog.Logger) (*service.Service, error) {
	globalPath, err := cfg.GlobalDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolving global database path: %w", err)
	}
	return service.New(service.Config{
		Store: memory.Config{
			GlobalPath:         globalPath,
			ProjectDBName:      cfg.Storage.ProjectDBName,
			MaxSessionMemories: cfg.Storage.MaxSessionMemories,
		},
		Search: search.Config{
			K1:       cfg.Search.BM25K1,
			B:        cfg.Search.BM25B,
			MinScore: cfg.Search.MinScore,
		},
		DefaultK: cfg.Search.DefaultK,
		Logger:   log,
		Chunker: semantic.NopChunker{Config: semantic.ChunkConfig{
			MaxChunkSize: cfg.Chunking.MaxChunkSize,
			ChunkOverlap: cfg.Chunking.ChunkOverlap,
		}},
	}), nil
}

// New creates the server with every tool registered and the ranking index
// rebuilt from the global scope. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes every database the service opened
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call even if New failed.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, func(), error) {
	if log == nil {
		log = logging.Discard()
	}

	svc, err := NewService(cfg, log)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		if err := svc.Close(); err != nil {
			log.Warn("closing memory store", "error", err)
		}
	}

	// Session and project scopes keep working without a readable global
	// database; searches index their candidates on demand.
	if err := svc.Rebuild(ctx, memory.Global()); err != nil {
		log.Warn("index rebuild skipped", "error", err)
	}

	return NewWithService(svc, log), cleanup, nil
}

// NewWithService creates a server around an existing service.
func NewWithService(svc *service.Service, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	tools := memtools.Tools(svc)
	byName := make(map[string]mcpserver.ServerTool, len(tools))
	for _, t := range tools {
		byName[t.Tool.Name] = t
	}
	return &Server{svc: svc, tools: tools, byName: byName, log: log}
}

// Service returns the service behind the tools.
func (s *Server) Service() *service.Service { return s.svc }

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions tells the client how to use the memory tools.
func serverInstructions() string {
	return `You have access to rag-mcp, a local memory store with keyword search.

## Scopes
- session: lives only as long as this server process. Use it for scratch notes.
- project: stored under <project_path>/.rag-mcp/. Pass project_path with every call.
- global: shared by every project on this machine.

## Workflow
1. Call store_memory with decisions, fixes and patterns worth keeping.
2. Call search_memory before answering questions about earlier work.
3. Use list_memories to browse and delete_memory to remove stale entries.
4. Call clear_session when switching tasks.

Search is BM25 keyword ranking: use the words the memory is likely to contain.`
}
