// rag-mcp: local memory store for MCP clients.
//
// Memories live in three scopes (session, project, global) and are ranked
// with BM25 keyword search. The server speaks line-delimited JSON-RPC 2.0
// on stdio.
//
// Usage:
//
//	rag-mcp serve                      # Start MCP server (stdio transport)
//	rag-mcp add --content "..."        # Store a memory from the shell
//	rag-mcp search "query" -k 5        # Search a scope
//	rag-mcp config init                # Write the default config file
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/rag-mcp/internal/server"
	"github.com/charmbracelet/fang"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd(server.Version)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		stop()
		os.Exit(1)
	}
}
